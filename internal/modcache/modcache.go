// Package modcache persists resolved module metadata across compiler
// invocations: for each qualified module name, the source file it came
// from, a content hash used to detect staleness, and the shape of its
// exported symbols, so a later invocation that imports an unchanged
// module can skip re-resolving it from source.
package modcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ExportedSymbol is the persisted shape of one symbol a module exports:
// enough for an importer to type-check against without re-running the
// exporting module's own semantic analysis.
type ExportedSymbol struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Type string `json:"type"`
}

// ModuleRecord is one row of the cache: a module's identity, where it
// lives, a digest of its last-seen source, and its export surface.
type ModuleRecord struct {
	QualifiedName string `gorm:"primaryKey;type:varchar(255)"`
	SourcePath    string `gorm:"type:text;not null"`
	SourceHash    string `gorm:"type:varchar(64);index"`
	Exports       datatypes.JSON
	ResolvedAt    time.Time `gorm:"autoUpdateTime"`
}

func (ModuleRecord) TableName() string { return "module_cache" }

// Cache wraps the on-disk registry database.
type Cache struct {
	db *gorm.DB
}

// Open creates (if needed) and connects to the sqlite database at path,
// migrating the module_cache table into it.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("modcache: create dir: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("modcache: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&ModuleRecord{}); err != nil {
		return nil, fmt.Errorf("modcache: migrate: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying database connection.
func (c *Cache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Put upserts a module's cache entry.
func (c *Cache) Put(qualifiedName, sourcePath, sourceHash string, exports []ExportedSymbol) error {
	encoded, err := json.Marshal(exports)
	if err != nil {
		return fmt.Errorf("modcache: encode exports: %w", err)
	}
	rec := ModuleRecord{
		QualifiedName: qualifiedName,
		SourcePath:    sourcePath,
		SourceHash:    sourceHash,
		Exports:       datatypes.JSON(encoded),
	}
	return c.db.Save(&rec).Error
}

// Get returns the cached record for qualifiedName, if any.
func (c *Cache) Get(qualifiedName string) (*ModuleRecord, bool, error) {
	var rec ModuleRecord
	err := c.db.First(&rec, "qualified_name = ?", qualifiedName).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &rec, true, nil
}

// IsStale reports whether qualifiedName's cached hash differs from (or
// is absent compared to) currentHash, meaning its source changed since
// the cache entry was written and it must be re-resolved.
func (c *Cache) IsStale(qualifiedName, currentHash string) (bool, error) {
	rec, ok, err := c.Get(qualifiedName)
	if err != nil {
		return true, err
	}
	if !ok {
		return true, nil
	}
	return rec.SourceHash != currentHash, nil
}

// Invalidate removes a module's cache entry, forcing the next lookup to
// treat it as uncached.
func (c *Cache) Invalidate(qualifiedName string) error {
	return c.db.Delete(&ModuleRecord{}, "qualified_name = ?", qualifiedName).Error
}

// DecodeExports decodes a record's stored export list.
func (r *ModuleRecord) DecodeExports() ([]ExportedSymbol, error) {
	var out []ExportedSymbol
	if len(r.Exports) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(r.Exports, &out); err != nil {
		return nil, fmt.Errorf("modcache: decode exports: %w", err)
	}
	return out, nil
}
