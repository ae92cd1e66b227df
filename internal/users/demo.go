package users

// DemoUsers is the fixture set loaded by cmd/seed and by the in-memory store.
func DemoUsers() []User {
	return []User{
		{ID: "admin-1", FullName: "Admin", Email: "admin@consult.local", Roles: []string{RoleAdmin}},
		{ID: "consultant-1", FullName: "Grace Mbuyi", Email: "grace@consult.local", Roles: []string{RoleConsultant}},
		{ID: "consultant-2", FullName: "Patrick Ilunga", Email: "patrick@consult.local", Roles: []string{RoleConsultant}},
		{ID: "client-1", FullName: "Sarah Kabeya", Email: "sarah@example.com", Roles: []string{RoleClient}},
		{ID: "client-2", FullName: "Jonas Tshibanda", Email: "jonas@example.com", Roles: []string{RoleClient}},
	}
}
