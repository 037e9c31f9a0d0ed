package db

import (
	"errors"
	"strconv"
)

// StorageType defines the document storage backend for FT indexes.
type StorageType string

const (
	// StorageHash stores documents as Redis hashes.
	StorageHash StorageType = "HASH"
)

// IndexFieldType enumerates supported FT index field types.
type IndexFieldType int

const (
	// IndexFieldText is a full-text field.
	IndexFieldText IndexFieldType = iota
)

// IndexField describes a single field in an FT index schema.
type IndexField struct {
	Name   string
	Type   IndexFieldType
	NoStem bool // TEXT only: match exact word forms
}

// IndexDefinition is a complete FT index definition used by FT.CREATE.
type IndexDefinition struct {
	Name        string
	StorageType StorageType
	Prefixes    []string
	Language    string // stemming language, empty = backend default (english)
	Fields      []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool)
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return errors.New("field name is required at index " + strconv.Itoa(i))
		}
		if seen[f.Name] {
			return errors.New("duplicate field name: " + f.Name)
		}
		seen[f.Name] = true
	}

	if idx.Language != "" && !IsValidLanguage(idx.Language) {
		return errors.New("unsupported stemming language: " + idx.Language)
	}

	return nil
}

// languages lists the stemming languages accepted by FT.CREATE LANGUAGE.
var languages = map[string]bool{
	"arabic": true, "armenian": true, "basque": true, "catalan": true, "chinese": true,
	"danish": true, "dutch": true, "english": true, "finnish": true, "french": true,
	"german": true, "greek": true, "hindi": true, "hungarian": true, "indonesian": true,
	"irish": true, "italian": true, "lithuanian": true, "nepali": true, "norwegian": true,
	"portuguese": true, "romanian": true, "russian": true, "serbian": true, "spanish": true,
	"swedish": true, "tamil": true, "turkish": true, "yiddish": true,
}

// IsValidLanguage reports whether lang is a supported stemming language.
func IsValidLanguage(lang string) bool {
	return languages[lang]
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
