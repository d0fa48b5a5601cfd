package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/keygate/internal/infrastructure/database"
)

// Repository defines the interface for catalog persistence operations.
type Repository interface {
	CreateBrand(ctx context.Context, b *Brand) error
	ListBrands(ctx context.Context) ([]Brand, error)
	GetBrand(ctx context.Context, id string) (*Brand, error)
	UpdateBrand(ctx context.Context, id string, patch BrandPatch) (*Brand, error)
	DeleteBrand(ctx context.Context, id string) error

	CreateCategory(ctx context.Context, c *Category) error
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id string) (*Category, error)
	UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (*Category, error)
	DeleteCategory(ctx context.Context, id string) error

	CreateSubcategory(ctx context.Context, s *Subcategory) error
	ListSubcategories(ctx context.Context) ([]Subcategory, error)
	ListSubcategoriesByCategory(ctx context.Context, categoryID string) ([]Subcategory, error)
	GetSubcategory(ctx context.Context, id string) (*Subcategory, error)
	UpdateSubcategory(ctx context.Context, id string, patch SubcategoryPatch) (*Subcategory, error)
	DeleteSubcategory(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed catalog repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// ─── Brands ────────────────────────────────────────────────────────

const brandColumns = `id, title, status, inactivated_at, created_at, updated_at`

// CreateBrand inserts a new active brand.
func (r *SQLiteRepository) CreateBrand(ctx context.Context, b *Brand) error {
	if err := ValidateName(b.Title); err != nil {
		return err
	}
	if b.ID == "" {
		b.ID = database.NewID("brd-")
	}
	now := now()
	b.Status, b.InactivatedAt = true, nil
	b.CreatedAt, b.UpdatedAt = now, now

	const query = `INSERT INTO brands (id, title, status, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, b.ID, b.Title, database.FormatTime(now), database.FormatTime(now))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrBrandExists
		}
		return fmt.Errorf("inserting brand %s: %w", b.ID, err)
	}
	return nil
}

// ListBrands returns all brands ordered by title.
func (r *SQLiteRepository) ListBrands(ctx context.Context) ([]Brand, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+brandColumns+" FROM brands ORDER BY title")
	if err != nil {
		return nil, fmt.Errorf("querying brands: %w", err)
	}
	defer rows.Close()

	brands := []Brand{}
	for rows.Next() {
		b, err := scanBrand(rows)
		if err != nil {
			return nil, err
		}
		brands = append(brands, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating brand rows: %w", err)
	}
	return brands, nil
}

// GetBrand returns a single brand by ID.
func (r *SQLiteRepository) GetBrand(ctx context.Context, id string) (*Brand, error) {
	return scanBrand(r.db.QueryRowContext(ctx, "SELECT "+brandColumns+" FROM brands WHERE id = ?", id))
}

// UpdateBrand applies patch. Switching Status off stamps InactivatedAt;
// switching it back on clears it. Re-sending the current status keeps the
// original stamp.
func (r *SQLiteRepository) UpdateBrand(ctx context.Context, id string, patch BrandPatch) (*Brand, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	b, err := scanBrand(tx.QueryRowContext(ctx, "SELECT "+brandColumns+" FROM brands WHERE id = ?", id))
	if err != nil {
		return nil, err
	}

	now := now()
	if patch.Title != nil {
		if err := ValidateName(*patch.Title); err != nil {
			return nil, err
		}
		b.Title = *patch.Title
	}
	if patch.Status != nil && *patch.Status != b.Status {
		b.Status = *patch.Status
		if b.Status {
			b.InactivatedAt = nil
		} else {
			b.InactivatedAt = &now
		}
	}
	b.UpdatedAt = now

	var inactivatedAt sql.NullString
	if b.InactivatedAt != nil {
		inactivatedAt = sql.NullString{String: database.FormatTime(*b.InactivatedAt), Valid: true}
	}

	const query = `UPDATE brands SET title = ?, status = ?, inactivated_at = ?, updated_at = ?
		WHERE id = ?`
	if _, err := tx.ExecContext(ctx, query,
		b.Title, boolToInt(b.Status), inactivatedAt, database.FormatTime(now), id,
	); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrBrandExists
		}
		return nil, fmt.Errorf("updating brand %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing brand update: %w", err)
	}
	return b, nil
}

// DeleteBrand removes a brand.
func (r *SQLiteRepository) DeleteBrand(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "brands", id, ErrBrandNotFound)
}

// ─── Categories ────────────────────────────────────────────────────

const categoryColumns = `id, name, description, has_subcategory, created_at, updated_at`

// CreateCategory inserts a new category.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c *Category) error {
	if err := ValidateName(c.Name); err != nil {
		return err
	}
	if err := ValidateDescription(c.Description); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = database.NewID("cat-")
	}
	now := now()
	c.CreatedAt, c.UpdatedAt = now, now

	const query = `INSERT INTO categories (id, name, description, has_subcategory, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Name, c.Description, boolToInt(c.HasSubcategory), database.FormatTime(now), database.FormatTime(now))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrCategoryExists
		}
		return fmt.Errorf("inserting category %s: %w", c.ID, err)
	}
	return nil
}

// ListCategories returns all categories ordered by name.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+categoryColumns+" FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category rows: %w", err)
	}
	return categories, nil
}

// GetCategory returns a single category by ID.
func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (*Category, error) {
	return scanCategory(r.db.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", id))
}

// UpdateCategory applies patch. HasSubcategory cannot be cleared while
// subcategories exist.
func (r *SQLiteRepository) UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (*Category, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	c, err := scanCategory(tx.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", id))
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if err := ValidateName(*patch.Name); err != nil {
			return nil, err
		}
		c.Name = *patch.Name
	}
	if patch.Description != nil {
		if err := ValidateDescription(*patch.Description); err != nil {
			return nil, err
		}
		c.Description = *patch.Description
	}
	if patch.HasSubcategory != nil {
		if c.HasSubcategory && !*patch.HasSubcategory {
			n, err := countSubcategories(ctx, tx, id)
			if err != nil {
				return nil, err
			}
			if n > 0 {
				return nil, ErrSubcategoriesPresent
			}
		}
		c.HasSubcategory = *patch.HasSubcategory
	}
	c.UpdatedAt = now()

	const query = `UPDATE categories SET name = ?, description = ?, has_subcategory = ?, updated_at = ?
		WHERE id = ?`
	if _, err := tx.ExecContext(ctx, query,
		c.Name, c.Description, boolToInt(c.HasSubcategory), database.FormatTime(c.UpdatedAt), id,
	); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("updating category %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing category update: %w", err)
	}
	return c, nil
}

// DeleteCategory removes a category with no subcategories.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	n, err := countSubcategories(ctx, tx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCategoryHasSubcategories
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting category %s: %w", id, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 { //nolint:errcheck // always succeeds on SQLite
		return ErrCategoryNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing category delete: %w", err)
	}
	return nil
}

// ─── Subcategories ─────────────────────────────────────────────────

const subcategoryColumns = `id, category_id, name, description, created_at, updated_at`

// CreateSubcategory files s under its category. The category must exist and
// accept subcategories.
func (r *SQLiteRepository) CreateSubcategory(ctx context.Context, s *Subcategory) error {
	if err := ValidateName(s.Name); err != nil {
		return err
	}
	if err := ValidateDescription(s.Description); err != nil {
		return err
	}
	if s.ID == "" {
		s.ID = database.NewID("sub-")
	}
	now := now()
	s.CreatedAt, s.UpdatedAt = now, now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if err := checkAcceptsSubcategories(ctx, tx, s.CategoryID); err != nil {
		return err
	}

	const query = `INSERT INTO subcategories (id, category_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query,
		s.ID, s.CategoryID, s.Name, s.Description, database.FormatTime(now), database.FormatTime(now),
	); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrSubcategoryExists
		}
		return fmt.Errorf("inserting subcategory %s: %w", s.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing subcategory: %w", err)
	}
	return nil
}

// ListSubcategories returns all subcategories ordered by name.
func (r *SQLiteRepository) ListSubcategories(ctx context.Context) ([]Subcategory, error) {
	return r.querySubcategories(ctx, "SELECT "+subcategoryColumns+" FROM subcategories ORDER BY name")
}

// ListSubcategoriesByCategory returns the subcategories of one category.
// An unknown category is ErrCategoryNotFound.
func (r *SQLiteRepository) ListSubcategoriesByCategory(ctx context.Context, categoryID string) ([]Subcategory, error) {
	if _, err := r.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	return r.querySubcategories(ctx,
		"SELECT "+subcategoryColumns+" FROM subcategories WHERE category_id = ? ORDER BY name", categoryID)
}

// GetSubcategory returns a single subcategory by ID.
func (r *SQLiteRepository) GetSubcategory(ctx context.Context, id string) (*Subcategory, error) {
	return scanSubcategory(r.db.QueryRowContext(ctx,
		"SELECT "+subcategoryColumns+" FROM subcategories WHERE id = ?", id))
}

// UpdateSubcategory applies patch. Moving to another category applies the
// same checks as creation.
func (r *SQLiteRepository) UpdateSubcategory(ctx context.Context, id string, patch SubcategoryPatch) (*Subcategory, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	s, err := scanSubcategory(tx.QueryRowContext(ctx,
		"SELECT "+subcategoryColumns+" FROM subcategories WHERE id = ?", id))
	if err != nil {
		return nil, err
	}

	if patch.CategoryID != nil && *patch.CategoryID != s.CategoryID {
		if err := checkAcceptsSubcategories(ctx, tx, *patch.CategoryID); err != nil {
			return nil, err
		}
		s.CategoryID = *patch.CategoryID
	}
	if patch.Name != nil {
		if err := ValidateName(*patch.Name); err != nil {
			return nil, err
		}
		s.Name = *patch.Name
	}
	if patch.Description != nil {
		if err := ValidateDescription(*patch.Description); err != nil {
			return nil, err
		}
		s.Description = *patch.Description
	}
	s.UpdatedAt = now()

	const query = `UPDATE subcategories SET category_id = ?, name = ?, description = ?, updated_at = ?
		WHERE id = ?`
	if _, err := tx.ExecContext(ctx, query,
		s.CategoryID, s.Name, s.Description, database.FormatTime(s.UpdatedAt), id,
	); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrSubcategoryExists
		}
		return nil, fmt.Errorf("updating subcategory %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing subcategory update: %w", err)
	}
	return s, nil
}

// DeleteSubcategory removes a subcategory.
func (r *SQLiteRepository) DeleteSubcategory(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "subcategories", id, ErrSubcategoryNotFound)
}

// ─── Helpers ───────────────────────────────────────────────────────

func (r *SQLiteRepository) querySubcategories(ctx context.Context, query string, args ...any) ([]Subcategory, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying subcategories: %w", err)
	}
	defer rows.Close()

	subs := []Subcategory{}
	for rows.Next() {
		s, err := scanSubcategory(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subcategory rows: %w", err)
	}
	return subs, nil
}

// deleteByID deletes one row of table. table is always a package constant.
func (r *SQLiteRepository) deleteByID(ctx context.Context, table, id string, notFound error) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id) //nolint:gosec // table is not user input
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 { //nolint:errcheck // always succeeds on SQLite
		return notFound
	}
	return nil
}

// checkAcceptsSubcategories loads categoryID inside tx and reports whether
// subcategories may be filed under it.
func checkAcceptsSubcategories(ctx context.Context, tx *sql.Tx, categoryID string) error {
	var has int
	err := tx.QueryRowContext(ctx, "SELECT has_subcategory FROM categories WHERE id = ?", categoryID).Scan(&has)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("loading category %s: %w", categoryID, err)
	}
	if has == 0 {
		return ErrSubcategoriesDisabled
	}
	return nil
}

func countSubcategories(ctx context.Context, tx *sql.Tx, categoryID string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM subcategories WHERE category_id = ?", categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting subcategories: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBrand(s scanner) (*Brand, error) {
	var b Brand
	var status int
	var inactivatedAt sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(&b.ID, &b.Title, &status, &inactivatedAt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBrandNotFound
		}
		return nil, fmt.Errorf("scanning brand: %w", err)
	}
	b.Status = status != 0
	if inactivatedAt.Valid {
		t := database.ParseTime(inactivatedAt.String)
		b.InactivatedAt = &t
	}
	b.CreatedAt = database.ParseTime(createdAt)
	b.UpdatedAt = database.ParseTime(updatedAt)
	return &b, nil
}

func scanCategory(s scanner) (*Category, error) {
	var c Category
	var has int
	var createdAt, updatedAt string

	err := s.Scan(&c.ID, &c.Name, &c.Description, &has, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("scanning category: %w", err)
	}
	c.HasSubcategory = has != 0
	c.CreatedAt = database.ParseTime(createdAt)
	c.UpdatedAt = database.ParseTime(updatedAt)
	return &c, nil
}

func scanSubcategory(s scanner) (*Subcategory, error) {
	var sub Subcategory
	var createdAt, updatedAt string

	err := s.Scan(&sub.ID, &sub.CategoryID, &sub.Name, &sub.Description, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubcategoryNotFound
		}
		return nil, fmt.Errorf("scanning subcategory: %w", err)
	}
	sub.CreatedAt = database.ParseTime(createdAt)
	sub.UpdatedAt = database.ParseTime(updatedAt)
	return &sub, nil
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
