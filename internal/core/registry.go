package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// FieldType represents the expected data type for a sheet column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEnum
	FieldDate
	FieldPercent
)

// FieldSpec defines validation rules for a single sheet column.
type FieldSpec struct {
	Name       string    // Column header name (matched case-insensitively)
	Type       FieldType // Expected data type
	Required   bool      // Column must exist in the header
	AllowEmpty bool      // If true, empty values are allowed even when Required
	EnumValues []string  // Valid values for FieldEnum type
}

// SheetDefinition describes one table of the relational template.
type SheetDefinition struct {
	Key        string   // Stable identifier: "clients", "owners", ...
	Name       string   // Sheet name as it appears in the workbook
	Aliases    []string // Alternative sheet names accepted on detection
	FieldSpecs []FieldSpec
}

// Columns returns the header names in template order.
func (d SheetDefinition) Columns() []string {
	cols := make([]string, len(d.FieldSpecs))
	for i, spec := range d.FieldSpecs {
		cols[i] = spec.Name
	}
	return cols
}

// RequiredColumns returns the header names that must be present.
func (d SheetDefinition) RequiredColumns() []string {
	var cols []string
	for _, spec := range d.FieldSpecs {
		if spec.Required {
			cols = append(cols, spec.Name)
		}
	}
	return cols
}

// Matches reports whether a workbook sheet name refers to this definition.
func (d SheetDefinition) Matches(sheetName string) bool {
	name := strings.TrimSpace(sheetName)
	if strings.EqualFold(name, d.Name) {
		return true
	}
	for _, alias := range d.Aliases {
		if strings.EqualFold(name, alias) {
			return true
		}
	}
	return false
}

var (
	registry   = make(map[string]SheetDefinition)
	registryMu sync.RWMutex
)

// Register adds a sheet definition to the registry.
// Panics if a sheet with the same key is already registered.
func Register(def SheetDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Key]; exists {
		panic(fmt.Sprintf("sheet already registered: %s", def.Key))
	}
	registry[def.Key] = def
}

// Get returns a sheet definition by key.
func Get(key string) (SheetDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered sheet definitions sorted by key.
func All() []SheetDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]SheetDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

// SheetCount returns the number of registered sheets.
func SheetCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}
