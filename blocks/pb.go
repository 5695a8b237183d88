package blocks

import (
	pb "github.com/c0deeast/suyuan-vm/pb/catalog"
)

// ToPB は、カタログを protobuf のメッセージに変換します。
func (c *Catalog) ToPB() *pb.Catalog {
	result := &pb.Catalog{
		VariantId:   c.Variant.ID,
		VariantName: c.Variant.Name,
		Categories:  make([]*pb.Category, len(c.Categories)),
	}
	for i, cat := range c.Categories {
		result.Categories[i] = cat.ToPB()
	}
	return result
}

func (cat *Category) ToPB() *pb.Category {
	result := &pb.Category{
		Id:     cat.ID,
		Name:   cat.Name,
		Color1: cat.Color1,
		Color2: cat.Color2,
		Color3: cat.Color3,
		Blocks: make([]*pb.Block, len(cat.Blocks)),
		Menus:  make([]*pb.Menu, len(cat.Menus)),
	}
	for i, d := range cat.Blocks {
		result.Blocks[i] = d.ToPB()
	}
	for i, m := range cat.Menus {
		result.Menus[i] = m.ToPB()
	}
	return result
}

func (d *Descriptor) ToPB() *pb.Block {
	if d.IsSeparator() {
		return &pb.Block{Opcode: SeparatorOpcode, Separator: true}
	}
	result := &pb.Block{
		Opcode:    d.Opcode,
		Text:      d.Text,
		BlockType: string(d.BlockType),
		Arity:     d.Arity.String(),
		Class:     d.Class.String(),
		Arguments: make([]*pb.Argument, len(d.Arguments)),
	}
	for i, a := range d.Arguments {
		result.Arguments[i] = &pb.Argument{
			Name:         a.Name,
			Type:         string(a.Type),
			Menu:         a.Menu,
			DefaultValue: a.Default,
		}
	}
	return result
}

func (m *Menu) ToPB() *pb.Menu {
	result := &pb.Menu{
		Name:            m.Name,
		AcceptReporters: m.AcceptReporters,
		Items:           make([]*pb.MenuItem, len(m.Items)),
	}
	for i, it := range m.Items {
		result.Items[i] = &pb.MenuItem{Text: it.Text, Value: it.Value}
	}
	return result
}
