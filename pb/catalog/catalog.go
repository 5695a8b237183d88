// Package catalog は、ブロックカタログをバイナリで出力するための
// catalog.proto のメッセージです。
package catalog

import (
	"github.com/golang/protobuf/proto"
)

type MenuItem struct {
	Text  string `protobuf:"bytes,1,opt,name=text,proto3" json:"text,omitempty"`
	Value string `protobuf:"bytes,2,opt,name=value,proto3" json:"value,omitempty"`
}

func (m *MenuItem) Reset()         { *m = MenuItem{} }
func (m *MenuItem) String() string { return proto.CompactTextString(m) }
func (*MenuItem) ProtoMessage()    {}

type Menu struct {
	Name            string      `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	AcceptReporters bool        `protobuf:"varint,2,opt,name=accept_reporters,json=acceptReporters,proto3" json:"accept_reporters,omitempty"`
	Items           []*MenuItem `protobuf:"bytes,3,rep,name=items,proto3" json:"items,omitempty"`
}

func (m *Menu) Reset()         { *m = Menu{} }
func (m *Menu) String() string { return proto.CompactTextString(m) }
func (*Menu) ProtoMessage()    {}

type Argument struct {
	Name         string `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	Type         string `protobuf:"bytes,2,opt,name=type,proto3" json:"type,omitempty"`
	Menu         string `protobuf:"bytes,3,opt,name=menu,proto3" json:"menu,omitempty"`
	DefaultValue string `protobuf:"bytes,4,opt,name=default_value,json=defaultValue,proto3" json:"default_value,omitempty"`
}

func (m *Argument) Reset()         { *m = Argument{} }
func (m *Argument) String() string { return proto.CompactTextString(m) }
func (*Argument) ProtoMessage()    {}

type Block struct {
	Opcode    string      `protobuf:"bytes,1,opt,name=opcode,proto3" json:"opcode,omitempty"`
	Text      string      `protobuf:"bytes,2,opt,name=text,proto3" json:"text,omitempty"`
	BlockType string      `protobuf:"bytes,3,opt,name=block_type,json=blockType,proto3" json:"block_type,omitempty"`
	Arity     string      `protobuf:"bytes,4,opt,name=arity,proto3" json:"arity,omitempty"`
	Class     string      `protobuf:"bytes,5,opt,name=class,proto3" json:"class,omitempty"`
	Separator bool        `protobuf:"varint,6,opt,name=separator,proto3" json:"separator,omitempty"`
	Arguments []*Argument `protobuf:"bytes,7,rep,name=arguments,proto3" json:"arguments,omitempty"`
}

func (m *Block) Reset()         { *m = Block{} }
func (m *Block) String() string { return proto.CompactTextString(m) }
func (*Block) ProtoMessage()    {}

type Category struct {
	Id     string   `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	Name   string   `protobuf:"bytes,2,opt,name=name,proto3" json:"name,omitempty"`
	Color1 string   `protobuf:"bytes,3,opt,name=color1,proto3" json:"color1,omitempty"`
	Color2 string   `protobuf:"bytes,4,opt,name=color2,proto3" json:"color2,omitempty"`
	Color3 string   `protobuf:"bytes,5,opt,name=color3,proto3" json:"color3,omitempty"`
	Blocks []*Block `protobuf:"bytes,6,rep,name=blocks,proto3" json:"blocks,omitempty"`
	Menus  []*Menu  `protobuf:"bytes,7,rep,name=menus,proto3" json:"menus,omitempty"`
}

func (m *Category) Reset()         { *m = Category{} }
func (m *Category) String() string { return proto.CompactTextString(m) }
func (*Category) ProtoMessage()    {}

type Catalog struct {
	VariantId   string      `protobuf:"bytes,1,opt,name=variant_id,json=variantId,proto3" json:"variant_id,omitempty"`
	VariantName string      `protobuf:"bytes,2,opt,name=variant_name,json=variantName,proto3" json:"variant_name,omitempty"`
	Categories  []*Category `protobuf:"bytes,3,rep,name=categories,proto3" json:"categories,omitempty"`
}

func (m *Catalog) Reset()         { *m = Catalog{} }
func (m *Catalog) String() string { return proto.CompactTextString(m) }
func (*Catalog) ProtoMessage()    {}

// LoadBytes は、バイト列からカタログを読み込みます。
func LoadBytes(b []byte) (*Catalog, error) {
	var c Catalog
	if err := proto.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Get は、オペコードに対応するブロックを返します。区切り線は返しません。
func (c *Catalog) Get(opcode string) (*Block, bool) {
	if c == nil {
		return nil, false
	}
	for _, cat := range c.Categories {
		for _, b := range cat.Blocks {
			if !b.Separator && b.Opcode == opcode {
				return b, true
			}
		}
	}
	return nil, false
}
