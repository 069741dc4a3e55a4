// Package config holds the optimizer thresholds and driver settings and
// reads them from TOML files.
package config

import (
	"bufio"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"github.com/pkg/errors"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see %s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// Optimizer holds the function-size thresholds.
type Optimizer struct {
	// FunctionInstructionThreshold is the instruction count above which a
	// function is split, and at or above which a new split is split again.
	FunctionInstructionThreshold int
	// MinSplitInstructions is the smallest range worth extracting.
	MinSplitInstructions int
	// MaxSplitArgs caps the parameter count of an extracted function.
	MaxSplitArgs int
	// PeriodicSplitInterval is the target instruction count of each chunk
	// emitted by the periodic splitter.
	PeriodicSplitInterval int
}

// Driver holds pipeline settings.
type Driver struct {
	// Workers bounds concurrent candidate scanning. Zero means GOMAXPROCS.
	Workers int
	// Verify runs the IR verifier before and after splitting.
	Verify bool
	// DumpIR writes the module before and after splitting into DumpDir.
	DumpIR  bool
	DumpDir string `toml:",omitempty"`
}

// Config is the top-level configuration.
type Config struct {
	Optimizer Optimizer
	Driver    Driver
}

// Defaults contains the default settings.
var Defaults = Config{
	Optimizer: Optimizer{
		FunctionInstructionThreshold: 1000,
		MinSplitInstructions:         25,
		MaxSplitArgs:                 250,
		PeriodicSplitInterval:        500,
	},
	Driver: Driver{
		Workers: 0,
		Verify:  true,
	},
}

// DefaultConfig returns a copy of Defaults.
func DefaultConfig() *Config {
	cfg := Defaults
	return &cfg
}

// minPeriodicInterval is the size of one entry-store group.
const minPeriodicInterval = 3

// Validate checks that the thresholds are usable together.
func (c *Config) Validate() error {
	o := c.Optimizer
	switch {
	case o.FunctionInstructionThreshold <= 0:
		return errors.Errorf("invalid FunctionInstructionThreshold %d: must be positive", o.FunctionInstructionThreshold)
	case o.MinSplitInstructions <= 0:
		return errors.Errorf("invalid MinSplitInstructions %d: must be positive", o.MinSplitInstructions)
	case o.MaxSplitArgs <= 0:
		return errors.Errorf("invalid MaxSplitArgs %d: must be positive", o.MaxSplitArgs)
	case o.PeriodicSplitInterval < minPeriodicInterval:
		return errors.Errorf("invalid PeriodicSplitInterval %d: must be at least %d", o.PeriodicSplitInterval, minPeriodicInterval)
	case o.PeriodicSplitInterval >= o.FunctionInstructionThreshold:
		return errors.Errorf("PeriodicSplitInterval %d must be below FunctionInstructionThreshold %d",
			o.PeriodicSplitInterval, o.FunctionInstructionThreshold)
	case c.Driver.Workers < 0:
		return errors.Errorf("invalid Workers %d: must not be negative", c.Driver.Workers)
	case c.Driver.DumpIR && c.Driver.DumpDir == "":
		return errors.New("DumpIR requires DumpDir")
	}
	return nil
}

// Load reads file on top of cfg.
func Load(file string, cfg *Config) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// Marshal renders cfg as TOML.
func Marshal(cfg *Config) ([]byte, error) {
	return tomlSettings.Marshal(cfg)
}
