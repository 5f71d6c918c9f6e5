package domain

// Category is the application's coarse venue taxonomy.
type Category string

const (
	CategoryRestaurant Category = "restaurant"
	CategoryCafe       Category = "cafe"
	CategoryBar        Category = "bar"
	CategoryShopping   Category = "shopping"
	CategoryPark       Category = "park"
	CategoryAttraction Category = "attraction"
	CategoryGym        Category = "gym"
	CategoryLibrary    Category = "library"
	CategoryOther      Category = "other"
)

// categoryPriority is the fixed resolution order: the first category whose
// tag set intersects the venue's tags wins.
var categoryPriority = []Category{
	CategoryRestaurant,
	CategoryCafe,
	CategoryBar,
	CategoryShopping,
	CategoryPark,
	CategoryAttraction,
	CategoryGym,
	CategoryLibrary,
}

// categoryTags maps each category to the provider place-type tags it absorbs.
// Only specific tags live here; broad umbrella tags like "food" are resolved
// in a second pass so they never outrank a more specific sibling tag.
var categoryTags = map[Category]map[string]struct{}{
	CategoryRestaurant: tagSet("restaurant", "meal_takeaway", "meal_delivery"),
	CategoryCafe:       tagSet("cafe", "bakery", "coffee_shop"),
	CategoryBar:        tagSet("bar", "night_club", "pub"),
	CategoryShopping:   tagSet("shopping_mall", "store", "supermarket", "clothing_store", "department_store", "book_store"),
	CategoryPark:       tagSet("park", "campground"),
	CategoryAttraction: tagSet("tourist_attraction", "museum", "art_gallery", "amusement_park", "zoo", "aquarium"),
	CategoryGym:        tagSet("gym", "fitness_center"),
	CategoryLibrary:    tagSet("library"),
}

// fallbackTags are umbrella provider tags consulted only when no specific tag
// matched. The provider attaches "food" to cafes, bakeries, and bars alike.
var fallbackTags = map[string]Category{
	"food": CategoryRestaurant,
}

func tagSet(tags ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Categorize maps a venue's provider place-type tags to a single category.
// Deterministic and independent of tag ordering; unrecognized tag sets fall
// through to CategoryOther.
func Categorize(tags []string) Category {
	for _, cat := range categoryPriority {
		known := categoryTags[cat]
		for _, t := range tags {
			if _, ok := known[t]; ok {
				return cat
			}
		}
	}
	for _, t := range tags {
		if cat, ok := fallbackTags[t]; ok {
			return cat
		}
	}
	return CategoryOther
}

// Categories returns the full taxonomy in priority order, without Other.
func Categories() []Category {
	out := make([]Category, len(categoryPriority))
	copy(out, categoryPriority)
	return out
}
