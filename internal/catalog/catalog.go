package catalog

import "github.com/annel0/mmo-game/internal/shapecache"

// ItemID identifies an item type (inventory slots reference these).
type ItemID uint16

const (
	NoItemID  ItemID = 0
	WoodID    ItemID = 1
	StoneItem ItemID = 2
	AxeID     ItemID = 100
	PickaxeID ItemID = 101
)

// ItemDef is one item catalog entry.
type ItemDef struct {
	Name     string
	MaxCount uint8 // Bulk slots clamp count to [0, MaxCount]; Special items ignore count
	Special  bool  // Special(param, item) vs Bulk(count, item) — §3.2
}

var items = map[ItemID]ItemDef{
	NoItemID:  {Name: "none", MaxCount: 0},
	WoodID:    {Name: "wood", MaxCount: 255},
	StoneItem: {Name: "stone", MaxCount: 255},
	AxeID:     {Name: "axe", MaxCount: 0, Special: true},
	PickaxeID: {Name: "pickaxe", MaxCount: 0, Special: true},
}

func Item(id ItemID) ItemDef {
	if def, ok := items[id]; ok {
		return def
	}
	return items[NoItemID]
}

func ItemNameToID(name string) (ItemID, bool) {
	for id, def := range items {
		if def.Name == name {
			return id, true
		}
	}
	return 0, false
}

// TemplateID identifies a structure template.
type TemplateID uint16

const (
	TemplateHut     TemplateID = 1
	TemplateWell    TemplateID = 2
	TemplateWallRun TemplateID = 3
)

// TemplateCell is one occupied cell of a template, relative to its anchor.
type TemplateCell struct {
	Offset [3]int
	Shape  shapecache.Flag
}

// TemplateDef is an immutable structure template: its shape, the layer it
// occupies (§4.2's three structure layers), and its occupied cells.
type TemplateDef struct {
	Name  string
	Layer int // 0..2
	Cells []TemplateCell
}

var templates = map[TemplateID]TemplateDef{
	TemplateHut: {
		Name:  "hut",
		Layer: 0,
		Cells: []TemplateCell{
			{Offset: [3]int{0, 0, 0}, Shape: shapecache.Solid},
			{Offset: [3]int{1, 0, 0}, Shape: shapecache.Solid},
			{Offset: [3]int{0, 1, 0}, Shape: shapecache.Solid},
			{Offset: [3]int{1, 1, 0}, Shape: shapecache.Solid},
		},
	},
	TemplateWell: {
		Name:  "well",
		Layer: 1,
		Cells: []TemplateCell{
			{Offset: [3]int{0, 0, 0}, Shape: shapecache.Floor},
		},
	},
	TemplateWallRun: {
		Name:  "wall_run",
		Layer: 0,
		Cells: []TemplateCell{
			{Offset: [3]int{0, 0, 0}, Shape: shapecache.Solid},
			{Offset: [3]int{1, 0, 0}, Shape: shapecache.Solid},
			{Offset: [3]int{2, 0, 0}, Shape: shapecache.Solid},
		},
	},
}

func Template(id TemplateID) (TemplateDef, bool) {
	def, ok := templates[id]
	return def, ok
}

func TemplateNameToID(name string) (TemplateID, bool) {
	for id, def := range templates {
		if def.Name == name {
			return id, true
		}
	}
	return 0, false
}

// AnimationID identifies a playable entity animation.
type AnimationID uint16

const (
	AnimIdle AnimationID = 0
	AnimWalk AnimationID = 1
	AnimRun  AnimationID = 2
)

var animationNames = map[AnimationID]string{
	AnimIdle: "idle",
	AnimWalk: "walk",
	AnimRun:  "run",
}

func AnimationName(id AnimationID) string {
	if n, ok := animationNames[id]; ok {
		return n
	}
	return "idle"
}

func AnimationNameToID(name string) (AnimationID, bool) {
	for id, n := range animationNames {
		if n == name {
			return id, true
		}
	}
	return 0, false
}

// RecipeID identifies a crafting recipe (CraftRecipe opcode, §6.1).
type RecipeID uint16

// RecipeDef is a fixed ingredient->output mapping; the core only needs to
// validate counts, the loot/crafting balance itself is tooling, out of scope.
type RecipeDef struct {
	Name     string
	Inputs   map[ItemID]uint8
	Output   ItemID
	OutCount uint8
}

var recipes = map[RecipeID]RecipeDef{
	1: {Name: "planks", Inputs: map[ItemID]uint8{WoodID: 1}, Output: StoneItem, OutCount: 4},
}

func Recipe(id RecipeID) (RecipeDef, bool) {
	def, ok := recipes[id]
	return def, ok
}
