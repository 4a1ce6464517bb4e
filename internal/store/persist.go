package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/Dimoks/deepLuna/internal/opcode"
)

// document is the single persisted JSON form of the database. Unknown
// fields are tolerated on load so newer tools can extend it.
type document struct {
	SceneMap           map[string]*opcode.Scene `json:"scene_map"`
	TranslationEntries map[string]*Entry        `json:"translation_entries"`
	Overrides          map[int]*Override        `json:"overrides"`
	CharswapMap        map[string]string        `json:"charswap_map"`
}

// Save writes the database as one JSON document.
func (db *DB) Save(w io.Writer) error {
	doc := document{
		SceneMap:           db.scenes,
		TranslationEntries: db.entries,
		Overrides:          db.overrides,
		CharswapMap:        db.charswap,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("save database: %w", err)
	}
	return nil
}

// Load reads a database document, verifies entry integrity and rebuilds
// the offset index from the scene references. A failed load returns no
// database at all.
func Load(r io.Reader) (*DB, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("load database: %w", err)
	}

	db := New()
	for hash, e := range doc.TranslationEntries {
		if e == nil {
			return nil, fmt.Errorf("load database: entry %s is null", hash)
		}
		if got := HashText(e.SourceText); got != hash {
			return nil, fmt.Errorf("load database: entry %s does not match its source text digest %s", hash, got)
		}
		if e.ContentHash == "" {
			e.ContentHash = hash
		} else if e.ContentHash != hash {
			return nil, fmt.Errorf("load database: entry %s carries mismatched content hash %s", hash, e.ContentHash)
		}
		db.entries[hash] = e
	}
	for name, sc := range doc.SceneMap {
		if sc == nil {
			return nil, fmt.Errorf("load database: scene %q is null", name)
		}
		for _, ref := range sc.Refs {
			if _, ok := db.entries[ref.ContentHash]; !ok {
				return nil, fmt.Errorf("load database: scene %q offset %d references unknown hash %s", name, ref.Offset, ref.ContentHash)
			}
			db.hashByOffset[ref.Offset] = ref.ContentHash
		}
		db.scenes[name] = sc
	}
	for offset, ov := range doc.Overrides {
		if ov == nil {
			return nil, fmt.Errorf("load database: override %d is null", offset)
		}
		db.overrides[offset] = ov
	}
	if doc.CharswapMap != nil {
		db.SetCharswap(doc.CharswapMap)
	}

	log.Debug().
		Int("scenes", len(db.scenes)).
		Int("entries", len(db.entries)).
		Int("overrides", len(db.overrides)).
		Msg("Loaded translation database")
	return db, nil
}

// LoadFile reads a database from disk.
func LoadFile(path string) (*DB, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// SaveFile writes the database to disk.
func (db *DB) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	if err := db.Save(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
