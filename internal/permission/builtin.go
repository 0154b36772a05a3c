package permission

const (
	CategoryClinical       = "clinical"
	CategoryRetail         = "retail"
	CategoryAdministrative = "administrative"
)

const (
	PermManageAppointments   = "manage_appointments"
	PermManageMedicalRecords = "manage_medical_records"
	PermManagePatients       = "manage_patients"
	PermManagePrescriptions  = "manage_prescriptions"

	PermManageCustomers = "manage_customers"
	PermManageProducts  = "manage_products"
	PermManageInventory = "manage_inventory"
	PermManageSales     = "manage_sales"

	PermManageUsers    = "manage_users"
	PermManageBilling  = "manage_billing"
	PermViewReports    = "view_reports"
	PermManageSettings = "manage_settings"
)

var defaultCatalog = MustCatalog(
	Category{
		Key:   CategoryClinical,
		Title: "Clinical",
		Permissions: []Permission{
			{ID: PermManageAppointments, Label: "Appointments", Description: "Book, reschedule and cancel appointments"},
			{ID: PermManageMedicalRecords, Label: "Medical records", Description: "Read and write patient medical histories"},
			{ID: PermManagePatients, Label: "Patients", Description: "Register pets and maintain their profiles"},
			{ID: PermManagePrescriptions, Label: "Prescriptions", Description: "Issue and review prescriptions"},
		},
	},
	Category{
		Key:   CategoryRetail,
		Title: "Retail",
		Permissions: []Permission{
			{ID: PermManageCustomers, Label: "Customers", Description: "Maintain pet owner contact and account details"},
			{ID: PermManageProducts, Label: "Products", Description: "Edit the product and service list"},
			{ID: PermManageInventory, Label: "Inventory", Description: "Track stock levels and receive deliveries"},
			{ID: PermManageSales, Label: "Sales", Description: "Ring up sales at the point of sale"},
		},
	},
	Category{
		Key:   CategoryAdministrative,
		Title: "Administrative",
		Permissions: []Permission{
			{ID: PermManageUsers, Label: "Staff", Description: "Invite staff and change their permissions"},
			{ID: PermManageBilling, Label: "Billing", Description: "Create invoices and record payments"},
			{ID: PermViewReports, Label: "Reports", Description: "View financial and activity reports"},
			{ID: PermManageSettings, Label: "Clinic settings", Description: "Change clinic profile and branding"},
		},
	},
)

// DefaultCatalog returns the built-in clinic permission catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

// defaultTable is the role default matrix. Every row lists every permission;
// a missing entry is rejected by NewMatrix.
var defaultTable = map[Role]Levels{
	RoleAdmin: {
		PermManageAppointments:   LevelFull,
		PermManageMedicalRecords: LevelFull,
		PermManagePatients:       LevelFull,
		PermManagePrescriptions:  LevelFull,
		PermManageCustomers:      LevelFull,
		PermManageProducts:       LevelFull,
		PermManageInventory:      LevelFull,
		PermManageSales:          LevelFull,
		PermManageUsers:          LevelFull,
		PermManageBilling:        LevelFull,
		PermViewReports:          LevelFull,
		PermManageSettings:       LevelFull,
	},
	RoleManager: {
		PermManageAppointments:   LevelFull,
		PermManageMedicalRecords: LevelView,
		PermManagePatients:       LevelFull,
		PermManagePrescriptions:  LevelView,
		PermManageCustomers:      LevelFull,
		PermManageProducts:       LevelFull,
		PermManageInventory:      LevelFull,
		PermManageSales:          LevelFull,
		PermManageUsers:          LevelEdit,
		PermManageBilling:        LevelFull,
		PermViewReports:          LevelFull,
		PermManageSettings:       LevelEdit,
	},
	RoleVeterinarian: {
		PermManageAppointments:   LevelEdit,
		PermManageMedicalRecords: LevelFull,
		PermManagePatients:       LevelFull,
		PermManagePrescriptions:  LevelFull,
		PermManageCustomers:      LevelView,
		PermManageProducts:       LevelView,
		PermManageInventory:      LevelView,
		PermManageSales:          LevelNone,
		PermManageUsers:          LevelNone,
		PermManageBilling:        LevelNone,
		PermViewReports:          LevelView,
		PermManageSettings:       LevelNone,
	},
	RoleReceptionist: {
		PermManageAppointments:   LevelFull,
		PermManageMedicalRecords: LevelView,
		PermManagePatients:       LevelEdit,
		PermManagePrescriptions:  LevelNone,
		PermManageCustomers:      LevelFull,
		PermManageProducts:       LevelView,
		PermManageInventory:      LevelNone,
		PermManageSales:          LevelEdit,
		PermManageUsers:          LevelNone,
		PermManageBilling:        LevelEdit,
		PermViewReports:          LevelNone,
		PermManageSettings:       LevelNone,
	},
	RoleGroomer: {
		PermManageAppointments:   LevelView,
		PermManageMedicalRecords: LevelNone,
		PermManagePatients:       LevelView,
		PermManagePrescriptions:  LevelNone,
		PermManageCustomers:      LevelView,
		PermManageProducts:       LevelView,
		PermManageInventory:      LevelNone,
		PermManageSales:          LevelEdit,
		PermManageUsers:          LevelNone,
		PermManageBilling:        LevelNone,
		PermViewReports:          LevelNone,
		PermManageSettings:       LevelNone,
	},
	RoleAccountant: {
		PermManageAppointments:   LevelNone,
		PermManageMedicalRecords: LevelNone,
		PermManagePatients:       LevelNone,
		PermManagePrescriptions:  LevelNone,
		PermManageCustomers:      LevelView,
		PermManageProducts:       LevelView,
		PermManageInventory:      LevelView,
		PermManageSales:          LevelView,
		PermManageUsers:          LevelNone,
		PermManageBilling:        LevelFull,
		PermViewReports:          LevelFull,
		PermManageSettings:       LevelNone,
	},
	RoleStaff: {
		PermManageAppointments:   LevelView,
		PermManageMedicalRecords: LevelNone,
		PermManagePatients:       LevelView,
		PermManagePrescriptions:  LevelNone,
		PermManageCustomers:      LevelView,
		PermManageProducts:       LevelView,
		PermManageInventory:      LevelNone,
		PermManageSales:          LevelNone,
		PermManageUsers:          LevelNone,
		PermManageBilling:        LevelNone,
		PermViewReports:          LevelNone,
		PermManageSettings:       LevelNone,
	},
}

var defaultMatrix = MustMatrix(defaultCatalog, defaultTable)

// DefaultMatrix returns the built-in role default matrix over DefaultCatalog.
func DefaultMatrix() *Matrix {
	return defaultMatrix
}
