package blocks

// Argument は、ブロックの引数 1 つの定義です。
type Argument struct {
	Name    string       `json:"-"`
	Type    ArgumentType `json:"type"`
	Menu    string       `json:"menu,omitempty"`
	Default string       `json:"defaultValue"`
}

// Descriptor は、ブロック 1 つの定義です。
// カタログの構築後は変更されません。
type Descriptor struct {
	Opcode    string
	Text      string
	BlockType BlockType
	Arity     Arity
	Class     Class
	Arguments []Argument
}

// SeparatorOpcode は、カテゴリ内のブロックのまとまりの区切りを表します。
const SeparatorOpcode = "---"

// Separator は、Category.Blocks のまとまりの間に置く区切りです。
var Separator = &Descriptor{Opcode: SeparatorOpcode}

func (d *Descriptor) IsSeparator() bool {
	return d.Opcode == SeparatorOpcode
}

// Argument は、指定した名前の引数の定義を返します。
func (d *Descriptor) Argument(name string) (Argument, bool) {
	for _, a := range d.Arguments {
		if a.Name == name {
			return a, true
		}
	}
	return Argument{}, false
}

// Defaults は、すべての引数の既定値を返します。
func (d *Descriptor) Defaults() map[string]interface{} {
	m := map[string]interface{}{}
	for _, a := range d.Arguments {
		m[a.Name] = a.Default
	}
	return m
}
