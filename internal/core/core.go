// Package core provides the built-in library pin set: the classes and
// modules every analyzed program can see without requiring anything. The
// set is defined in an embedded YAML file, built once per process, and
// never invalidated.
package core

import (
	"fmt"
	"sync"

	_ "embed"

	"gopkg.in/yaml.v3"

	"rubylens/internal/pin"
	"rubylens/internal/store"
)

//go:embed core.yml
var coreYAML []byte

var (
	coreOnce  sync.Once
	coreStore *store.Store
)

// Store returns the shared, immutable core store, building it on first
// use. The embedded definitions are part of the binary; failing to parse
// them is a build defect, so it panics rather than degrading silently.
func Store() *store.Store {
	coreOnce.Do(func() {
		pins, err := buildPins(coreYAML)
		if err != nil {
			panic(fmt.Sprintf("core: invalid embedded definitions: %v", err))
		}
		coreStore = store.New(pins)
	})
	return coreStore
}

// Pins returns the core pin set in definition order.
func Pins() []*pin.Pin { return Store().Pins() }

type methodDef struct {
	Name       string   `yaml:"name"`
	Returns    string   `yaml:"returns"`
	Params     []string `yaml:"params"`
	Visibility string   `yaml:"visibility"`
	Scope      string   `yaml:"scope"`
	Doc        string   `yaml:"doc"`
}

type constDef struct {
	Name    string `yaml:"name"`
	Returns string `yaml:"returns"`
}

type namespaceDef struct {
	Name       string      `yaml:"name"`
	Type       string      `yaml:"type"`
	Superclass string      `yaml:"superclass"`
	Includes   []string    `yaml:"includes"`
	Extends    []string    `yaml:"extends"`
	Methods    []methodDef `yaml:"methods"`
	Constants  []constDef  `yaml:"constants"`
	Doc        string      `yaml:"doc"`
}

type coreDef struct {
	Namespaces []namespaceDef `yaml:"namespaces"`
}

func buildPins(data []byte) ([]*pin.Pin, error) {
	var def coreDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, err
	}
	var pins []*pin.Pin
	for _, ns := range def.Namespaces {
		nsType := pin.TypeClass
		if ns.Type == "module" {
			nsType = pin.TypeModule
		}
		name, parent := splitName(ns.Name)
		pins = append(pins, &pin.Pin{
			Kind:          pin.KindNamespace,
			Name:          name,
			Namespace:     parent,
			NamespaceType: nsType,
			Docs:          ns.Doc,
		})
		if ns.Superclass != "" {
			pins = append(pins, &pin.Pin{
				Kind: pin.KindReference, RefKind: pin.RefSuperclass,
				Name: ns.Superclass, Namespace: ns.Name,
			})
		}
		for _, inc := range ns.Includes {
			pins = append(pins, &pin.Pin{
				Kind: pin.KindReference, RefKind: pin.RefInclude,
				Name: inc, Namespace: ns.Name,
			})
		}
		for _, ext := range ns.Extends {
			pins = append(pins, &pin.Pin{
				Kind: pin.KindReference, RefKind: pin.RefExtend,
				Name: ext, Namespace: ns.Name,
			})
		}
		for _, m := range ns.Methods {
			p := &pin.Pin{
				Kind:       pin.KindMethod,
				Name:       m.Name,
				Namespace:  ns.Name,
				TypeName:   m.Returns,
				Parameters: m.Params,
				Docs:       m.Doc,
			}
			if m.Scope == "class" {
				p.Scope = pin.ScopeClass
			}
			switch m.Visibility {
			case "private":
				p.Visibility = pin.Private
			case "protected":
				p.Visibility = pin.Protected
			}
			pins = append(pins, p)
		}
		for _, c := range ns.Constants {
			pins = append(pins, &pin.Pin{
				Kind:      pin.KindConstant,
				Name:      c.Name,
				Namespace: ns.Name,
				TypeName:  c.Returns,
			})
		}
	}
	return pins, nil
}

func splitName(name string) (short, parent string) {
	for i := len(name) - 2; i > 0; i-- {
		if name[i] == ':' && name[i+1] == ':' {
			return name[i+2:], name[:i]
		}
	}
	return name, ""
}
