// Package blocks は、エディタに提供するブロックカタログです。
// ボード操作ごとの引数の定義と既定値を、メニューとともにカテゴリに分けて保持します。
package blocks

import (
	"encoding/json"
	"sync"

	"github.com/c0deeast/suyuan-vm/board"
	"github.com/pkg/errors"
)

// Category は、エディタのパレットの 1 区画です。
type Category struct {
	ID     string
	Name   string
	Color1 string
	Color2 string
	Color3 string
	Blocks []*Descriptor
	Menus  []*Menu
}

// Catalog は、ボードの種類ごとのブロックカタログです。構築後は変更されません。
type Catalog struct {
	Variant    *board.Variant
	Categories []*Category

	byOpcode map[string]*Descriptor
	menus    map[string]*Menu
}

func newCatalog(v *board.Variant, cats []*Category) (*Catalog, error) {
	c := &Catalog{
		Variant:    v,
		Categories: cats,
		byOpcode:   map[string]*Descriptor{},
		menus:      map[string]*Menu{},
	}
	for _, cat := range cats {
		for _, m := range cat.Menus {
			if _, dup := c.menus[m.Name]; dup {
				return nil, errors.Errorf("menu %s declared twice", m.Name)
			}
			c.menus[m.Name] = m
		}
	}
	for _, cat := range cats {
		for _, d := range cat.Blocks {
			if d.IsSeparator() {
				continue
			}
			if _, dup := c.byOpcode[d.Opcode]; dup {
				return nil, errors.Errorf("opcode %s declared twice", d.Opcode)
			}
			for _, a := range d.Arguments {
				if a.Menu == "" {
					continue
				}
				m, ok := c.menus[a.Menu]
				if !ok {
					return nil, errors.Errorf("%s.%s refers to undeclared menu %s", d.Opcode, a.Name, a.Menu)
				}
				if !m.Contains(a.Default) {
					return nil, errors.Errorf("%s.%s default %q is not in menu %s", d.Opcode, a.Name, a.Default, a.Menu)
				}
			}
			c.byOpcode[d.Opcode] = d
		}
	}
	return c, nil
}

// Lookup は、opcode に対応するブロック定義を返します。
func (c *Catalog) Lookup(opcode string) (*Descriptor, bool) {
	d, ok := c.byOpcode[opcode]
	return d, ok
}

// Menu は、指定した名前のメニューを返します。
func (c *Catalog) Menu(name string) (*Menu, bool) {
	m, ok := c.menus[name]
	return m, ok
}

// Descriptors は、区切りを除くすべてのブロックをパレット順に返します。
func (c *Catalog) Descriptors() []*Descriptor {
	ds := []*Descriptor{}
	for _, cat := range c.Categories {
		for _, d := range cat.Blocks {
			if !d.IsSeparator() {
				ds = append(ds, d)
			}
		}
	}
	return ds
}

type jsonBlock struct {
	Opcode    string              `json:"opcode"`
	Text      string              `json:"text"`
	BlockType BlockType           `json:"blockType"`
	Arity     Arity               `json:"arity"`
	Arguments map[string]Argument `json:"arguments,omitempty"`
}

type jsonCategory struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Color1 string           `json:"color1"`
	Color2 string           `json:"color2"`
	Color3 string           `json:"color3"`
	Blocks []interface{}    `json:"blocks"`
	Menus  map[string]*Menu `json:"menus"`
}

// MarshalJSON は、エディタが読み込む形式でカテゴリを出力します。
func (cat *Category) MarshalJSON() ([]byte, error) {
	j := jsonCategory{
		ID:     cat.ID,
		Name:   cat.Name,
		Color1: cat.Color1,
		Color2: cat.Color2,
		Color3: cat.Color3,
		Blocks: []interface{}{},
		Menus:  map[string]*Menu{},
	}
	for _, d := range cat.Blocks {
		if d.IsSeparator() {
			j.Blocks = append(j.Blocks, SeparatorOpcode)
			continue
		}
		b := jsonBlock{Opcode: d.Opcode, Text: d.Text, BlockType: d.BlockType, Arity: d.Arity}
		if 0 < len(d.Arguments) {
			b.Arguments = map[string]Argument{}
			for _, a := range d.Arguments {
				b.Arguments[a.Name] = a
			}
		}
		j.Blocks = append(j.Blocks, b)
	}
	for _, m := range cat.Menus {
		j.Menus[m.Name] = m
	}
	return json.Marshal(j)
}

func (c *Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Categories)
}

var (
	cacheMu sync.Mutex
	cache   = map[string]*Catalog{}
)

// Load は、ボードの種類に対応するカタログを返します。初回の呼び出しで構築します。
func Load(v *board.Variant) (*Catalog, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if c, ok := cache[v.ID]; ok {
		return c, nil
	}
	build, ok := builders[v.ID]
	if !ok {
		return nil, errors.Errorf("no block catalog for board variant %s", v.ID)
	}
	c, err := newCatalog(v, build(v))
	if err != nil {
		return nil, errors.Wrapf(err, "building catalog for %s", v.ID)
	}
	cache[v.ID] = c
	return c, nil
}

// NewCatalog は、キャッシュを使わずに新しいカタログを構築します。
func NewCatalog(v *board.Variant) (*Catalog, error) {
	build, ok := builders[v.ID]
	if !ok {
		return nil, errors.Errorf("no block catalog for board variant %s", v.ID)
	}
	return newCatalog(v, build(v))
}

var builders = map[string]func(*board.Variant) []*Category{
	board.ESP32ID: esp32Categories,
}
