package scene

// Category is the closed tag set for entity types. Unrecognized type
// names map to CategoryElement via an explicit table, never by substring
// matching.
type Category uint8

const (
	CategoryElement Category = iota
	CategoryWall
	CategorySlab
	CategoryRoof
	CategoryColumn
	CategoryBeam
	CategoryDoor
	CategoryWindow
	CategoryStair
	CategoryRamp
	CategoryRailing
	CategoryFurniture
	CategoryPipe
	CategoryDuct
	CategoryCovering
	CategoryCurtainWall
	CategoryFooting
	CategoryPile
	CategoryPlate
	CategoryMember
	CategorySpace
	CategorySite
	CategoryBuilding
	CategoryStorey
	CategoryProject
)

var categoryByType = map[string]Category{
	"IfcWall":               CategoryWall,
	"IfcWallStandardCase":   CategoryWall,
	"IfcSlab":               CategorySlab,
	"IfcRoof":               CategoryRoof,
	"IfcColumn":             CategoryColumn,
	"IfcBeam":               CategoryBeam,
	"IfcDoor":               CategoryDoor,
	"IfcWindow":             CategoryWindow,
	"IfcStair":              CategoryStair,
	"IfcStairFlight":        CategoryStair,
	"IfcRamp":               CategoryRamp,
	"IfcRampFlight":         CategoryRamp,
	"IfcRailing":            CategoryRailing,
	"IfcFurnishingElement":  CategoryFurniture,
	"IfcFurniture":          CategoryFurniture,
	"IfcPipeSegment":        CategoryPipe,
	"IfcPipeFitting":        CategoryPipe,
	"IfcDuctSegment":        CategoryDuct,
	"IfcDuctFitting":        CategoryDuct,
	"IfcCovering":           CategoryCovering,
	"IfcCurtainWall":        CategoryCurtainWall,
	"IfcFooting":            CategoryFooting,
	"IfcPile":               CategoryPile,
	"IfcPlate":              CategoryPlate,
	"IfcMember":             CategoryMember,
	"IfcSpace":              CategorySpace,
	"IfcSite":               CategorySite,
	"IfcBuilding":           CategoryBuilding,
	"IfcBuildingStorey":     CategoryStorey,
	"IfcProject":            CategoryProject,
}

// CategoryFromType resolves a source type tag to its category. Unknown
// tags become CategoryElement.
func CategoryFromType(typeName string) Category {
	if c, ok := categoryByType[typeName]; ok {
		return c
	}
	return CategoryElement
}

var categoryNames = [...]string{
	CategoryElement:     "Element",
	CategoryWall:        "Wall",
	CategorySlab:        "Slab",
	CategoryRoof:        "Roof",
	CategoryColumn:      "Column",
	CategoryBeam:        "Beam",
	CategoryDoor:        "Door",
	CategoryWindow:      "Window",
	CategoryStair:       "Stair",
	CategoryRamp:        "Ramp",
	CategoryRailing:     "Railing",
	CategoryFurniture:   "Furniture",
	CategoryPipe:        "Pipe",
	CategoryDuct:        "Duct",
	CategoryCovering:    "Covering",
	CategoryCurtainWall: "Curtain Wall",
	CategoryFooting:     "Footing",
	CategoryPile:        "Pile",
	CategoryPlate:       "Plate",
	CategoryMember:      "Member",
	CategorySpace:       "Space",
	CategorySite:        "Site",
	CategoryBuilding:    "Building",
	CategoryStorey:      "Storey",
	CategoryProject:     "Project",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "Element"
}
