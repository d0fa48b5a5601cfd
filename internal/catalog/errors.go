package catalog

import (
	"fmt"

	"github.com/nerrad567/keygate/internal/auth"
)

var (
	// ErrBrandNotFound is returned when a brand ID does not exist.
	ErrBrandNotFound = fmt.Errorf("brand %w", auth.ErrNotFound)

	// ErrCategoryNotFound is returned when a category ID does not exist.
	ErrCategoryNotFound = fmt.Errorf("category %w", auth.ErrNotFound)

	// ErrSubcategoryNotFound is returned when a subcategory ID does not exist.
	ErrSubcategoryNotFound = fmt.Errorf("subcategory %w", auth.ErrNotFound)

	ErrBrandExists       = fmt.Errorf("%w: brand title already exists", auth.ErrConflict)
	ErrCategoryExists    = fmt.Errorf("%w: category name already exists", auth.ErrConflict)
	ErrSubcategoryExists = fmt.Errorf("%w: subcategory name already exists", auth.ErrConflict)

	// ErrCategoryHasSubcategories is returned when deleting a category that
	// still has subcategories.
	ErrCategoryHasSubcategories = fmt.Errorf("%w: category has subcategories: delete them first", auth.ErrConflict)

	// ErrSubcategoriesPresent is returned when clearing HasSubcategory on a
	// category that still has subcategories.
	ErrSubcategoriesPresent = fmt.Errorf("%w: category still has subcategories", auth.ErrBadRequest)

	// ErrSubcategoriesDisabled is returned when filing a subcategory under a
	// category with HasSubcategory unset.
	ErrSubcategoriesDisabled = fmt.Errorf("%w: category does not accept subcategories", auth.ErrBadRequest)
)
