package permission

import (
	"errors"
	"fmt"
)

type Permission struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Category    string `json:"category_key"`
}

type Category struct {
	Key         string       `json:"key"`
	Title       string       `json:"title"`
	Permissions []Permission `json:"permissions"`
}

// Catalog is an immutable registry of permission categories. Permission ids
// are unique across all categories.
type Catalog struct {
	categories []Category
	byID       map[string]Permission
	byCategory map[string][]Permission
	ids        []string
}

func NewCatalog(categories ...Category) (*Catalog, error) {
	if len(categories) == 0 {
		return nil, errors.New("catalog has no categories")
	}

	c := &Catalog{
		byID:       make(map[string]Permission),
		byCategory: make(map[string][]Permission),
	}

	for _, cat := range categories {
		if cat.Key == "" {
			return nil, errors.New("category with empty key")
		}
		if _, dup := c.byCategory[cat.Key]; dup {
			return nil, fmt.Errorf("duplicate category %q", cat.Key)
		}

		perms := make([]Permission, 0, len(cat.Permissions))
		for _, p := range cat.Permissions {
			if p.ID == "" {
				return nil, fmt.Errorf("category %q: permission with empty id", cat.Key)
			}
			if prev, dup := c.byID[p.ID]; dup {
				return nil, fmt.Errorf("duplicate permission id %q in categories %q and %q", p.ID, prev.Category, cat.Key)
			}
			p.Category = cat.Key
			c.byID[p.ID] = p
			c.ids = append(c.ids, p.ID)
			perms = append(perms, p)
		}

		c.byCategory[cat.Key] = perms
		c.categories = append(c.categories, Category{Key: cat.Key, Title: cat.Title, Permissions: perms})
	}

	return c, nil
}

func MustCatalog(categories ...Category) *Catalog {
	c, err := NewCatalog(categories...)
	if err != nil {
		panic("permission catalog: " + err.Error())
	}
	return c
}

// Categories returns a copy of the categories in declaration order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	for i, cat := range c.categories {
		out[i] = Category{
			Key:         cat.Key,
			Title:       cat.Title,
			Permissions: append([]Permission(nil), cat.Permissions...),
		}
	}
	return out
}

func (c *Catalog) PermissionsIn(categoryKey string) ([]Permission, bool) {
	perms, ok := c.byCategory[categoryKey]
	if !ok {
		return nil, false
	}
	return append([]Permission(nil), perms...), true
}

func (c *Catalog) PermissionByID(id string) (Permission, bool) {
	p, ok := c.byID[id]
	return p, ok
}

func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// IDs returns every permission id in catalog order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.ids...)
}

// Validate reports the first id that the catalog does not know.
func (c *Catalog) Validate(ids []string) error {
	for _, id := range ids {
		if !c.Has(id) {
			return &UnknownPermissionError{ID: id}
		}
	}
	return nil
}

// None returns a complete Levels with every id set to LevelNone.
func (c *Catalog) None() Levels {
	ls := make(Levels, len(c.ids))
	for _, id := range c.ids {
		ls[id] = LevelNone
	}
	return ls
}

type UnknownPermissionError struct {
	ID string
}

func (e *UnknownPermissionError) Error() string {
	return fmt.Sprintf("unknown permission %q", e.ID)
}
