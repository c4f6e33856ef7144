package entities

// DefaultEntityTypes are the built-in entity types seeded on init.
// These cannot be deleted by users.
var DefaultEntityTypes = []EntityType{
	{
		Name:        "artist",
		Description: "DJs, producers, live acts and their aliases",
	},
	{
		Name:        "venue",
		Description: "Clubs, warehouses, open-air locations",
	},
	{
		Name:        "label",
		Description: "Record labels and imprints",
	},
	{
		Name:        "festival",
		Description: "Recurring festivals and one-off events",
	},
	{
		Name:        "promoter",
		Description: "Party series, promoters and booking collectives",
	},
	{
		Name:        "release",
		Description: "Records, EPs, compilations",
	},
}

// DefaultTypeNames returns just the names of default types for quick lookup.
func DefaultTypeNames() []string {
	names := make([]string, len(DefaultEntityTypes))
	for i, t := range DefaultEntityTypes {
		names[i] = t.Name
	}
	return names
}

// IsDefaultType checks if a type name is a built-in default.
func IsDefaultType(name string) bool {
	for _, t := range DefaultEntityTypes {
		if t.Name == name {
			return true
		}
	}
	return false
}
