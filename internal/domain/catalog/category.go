package catalog

import (
	"regexp"
	"strings"

	"github.com/gmja/storefront/internal/domain/shared"
)

var (
	slugPattern   = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9\s_-]+`)
	slugSeparator = regexp.MustCompile(`[\s_-]+`)
)

// Category groups products in a tree
type Category struct {
	shared.Model
	Name        string `gorm:"size:255;not null" json:"name"`
	Slug        string `gorm:"size:255;not null;index" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	ParentID    *uint  `gorm:"index" json:"parent_id"`
}

// NewCategory creates a root category; an empty slug is derived from the name
func NewCategory(name, slug, description string) (*Category, error) {
	c := &Category{}
	if err := c.Update(name, slug, description); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces the editable fields
func (c *Category) Update(name, slug, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_CATEGORY_NAME", "Category name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewDomainError("INVALID_CATEGORY_NAME", "Category name cannot exceed 255 characters")
	}
	if slug == "" {
		slug = Slugify(name)
	}
	if err := ValidateSlug(slug); err != nil {
		return err
	}
	c.Name = name
	c.Slug = slug
	c.Description = strings.TrimSpace(description)
	return nil
}

// SetParent moves the category under parent; nil makes it a root
func (c *Category) SetParent(parent *Category) error {
	if parent == nil {
		c.ParentID = nil
		return nil
	}
	if !c.IsNew() && parent.ID == c.ID {
		return shared.NewDomainError("INVALID_PARENT", "Category cannot be its own parent")
	}
	id := parent.ID
	c.ParentID = &id
	return nil
}

// IsRoot reports whether the category has no parent
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// CategoryNode is a category with its children, used for navigation
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
}

// BuildTree arranges a flat category list into trees, preserving input order.
// Categories whose parent is missing from the list become roots.
func BuildTree(categories []Category) []*CategoryNode {
	nodes := make(map[uint]*CategoryNode, len(categories))
	for i := range categories {
		nodes[categories[i].ID] = &CategoryNode{Category: categories[i], Children: []*CategoryNode{}}
	}
	roots := make([]*CategoryNode, 0)
	for i := range categories {
		node := nodes[categories[i].ID]
		if node.ParentID != nil {
			if parent, ok := nodes[*node.ParentID]; ok && parent != node {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// Slugify lowercases s and joins its words with hyphens
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugChars.ReplaceAllString(s, "")
	s = slugSeparator.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ValidateSlug checks s against the slug path converter
func ValidateSlug(s string) error {
	if s == "" || !slugPattern.MatchString(s) {
		return shared.NewDomainError("INVALID_SLUG", "Slug may contain only letters, numbers, underscores and hyphens")
	}
	return nil
}
