// Package catalog provides the product admin catalog: brands, categories
// and the subcategories filed under them.
//
// Every route over this package is guarded by the permission engine in
// package auth, and catalog errors wrap the auth error classes so the API
// maps them to the same status codes.
//
// Categories must opt in to subcategories with HasSubcategory. A category
// that still has subcategories can neither clear the flag nor be deleted.
//
// # Thread Safety
//
// SQLiteRepository is safe for concurrent use. Rules that span rows run in
// a single transaction.
package catalog
