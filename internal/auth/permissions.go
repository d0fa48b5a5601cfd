package auth

// Permission sections.
const (
	SectionUser        = "User"
	SectionRole        = "Role"
	SectionPermission  = "Permission"
	SectionAudit       = "Audit"
	SectionBrand       = "Brand"
	SectionCategory    = "Category"
	SectionSubcategory = "Subcategory"
)

// Permission names guarding the admin API.
const (
	PermReadUser   = "Read_User"
	PermWriteUser  = "Write_User"
	PermDeleteUser = "Delete_User"

	PermReadRole   = "Read_Role"
	PermWriteRole  = "Write_Role"
	PermUpdateRole = "Update_Role"
	PermDeleteRole = "Delete_Role"

	PermReadPermission  = "Read_Permission"
	PermWritePermission = "Write_Permission"

	PermReadAudit = "Read_Audit"

	PermReadBrand   = "Read_Brand"
	PermWriteBrand  = "Write_Brand"
	PermUpdateBrand = "Update_Brand"
	PermDeleteBrand = "Delete_Brand"

	PermReadCategory   = "Read_Category"
	PermWriteCategory  = "Write_Category"
	PermUpdateCategory = "Update_Category"
	PermDeleteCategory = "Delete_Category"

	PermReadSubcategory   = "Read_Subcategory"
	PermWriteSubcategory  = "Write_Subcategory"
	PermUpdateSubcategory = "Update_Subcategory"
	PermDeleteSubcategory = "Delete_Subcategory"
)

// AdminPermission returns the section-wide permission accepted as an
// alternative on read routes, e.g. Admin_Brand.
func AdminPermission(section string) string {
	return "Admin_" + section
}

// PermissionSpec describes a catalog entry before it has an ID.
type PermissionSpec struct {
	Name        string
	Description string
	Section     string
}

// sectionPermissions lists the per-section names seeded on first boot.
var sectionPermissions = []struct {
	section string
	names   []string
}{
	{SectionUser, []string{PermReadUser, PermWriteUser, PermDeleteUser}},
	{SectionRole, []string{PermReadRole, PermWriteRole, PermUpdateRole, PermDeleteRole}},
	{SectionPermission, []string{PermReadPermission, PermWritePermission}},
	{SectionAudit, []string{PermReadAudit}},
	{SectionBrand, []string{PermReadBrand, PermWriteBrand, PermUpdateBrand, PermDeleteBrand}},
	{SectionCategory, []string{PermReadCategory, PermWriteCategory, PermUpdateCategory, PermDeleteCategory}},
	{SectionSubcategory, []string{PermReadSubcategory, PermWriteSubcategory, PermUpdateSubcategory, PermDeleteSubcategory}},
}

// DefaultPermissions returns the built-in catalog: every route permission
// plus one Admin_<Section> per section.
func DefaultPermissions() []PermissionSpec {
	var specs []PermissionSpec
	for _, s := range sectionPermissions {
		for _, name := range s.names {
			specs = append(specs, PermissionSpec{
				Name:        name,
				Description: describe(name),
				Section:     s.section,
			})
		}
		specs = append(specs, PermissionSpec{
			Name:        AdminPermission(s.section),
			Description: "Full read access to " + s.section + " resources",
			Section:     s.section,
		})
	}
	return specs
}

// describe turns Read_Brand into "Read Brand".
func describe(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '_' {
			return name[:i] + " " + name[i+1:]
		}
	}
	return name
}
