package sequencer

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/c0deeast/suyuan-vm/blocks"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Step は、ブロックプログラムの 1 ステップです。
// Block・Wait・Repeat のいずれか 1 つだけを指定します。
type Step struct {
	Block string                 `yaml:"block,omitempty"`
	Args  map[string]interface{} `yaml:"args,omitempty"`
	// Store は、ブロックの値を保存する変数名です。後続のステップから $名前 で参照できます。
	Store string `yaml:"store,omitempty"`
	// Body は、割り込みブロックが発火するたびに実行されるステップです。
	Body []*Step `yaml:"body,omitempty"`

	Wait string `yaml:"wait,omitempty"`

	// Repeat は、Steps の繰り返し回数です（0: 停止されるまで繰り返す）。
	Repeat int     `yaml:"repeat,omitempty"`
	Steps  []*Step `yaml:"steps,omitempty"`

	wait time.Duration
}

// Program は、ブロックプログラムです。
type Program struct {
	Name  string  `yaml:"name,omitempty"`
	Steps []*Step `yaml:"steps"`
}

// ParseProgram は、YAML 形式のブロックプログラムを読み込みます。
func ParseProgram(b []byte) (*Program, error) {
	var p Program
	if err := yaml.UnmarshalStrict(b, &p); err != nil {
		return nil, errors.Wrap(err, "parsing block program")
	}
	return &p, nil
}

// LoadProgram は、ファイルからブロックプログラムを読み込みます。
func LoadProgram(file string) (*Program, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	p, err := ParseProgram(b)
	if err != nil {
		return nil, errors.Wrap(err, file)
	}
	if p.Name == "" {
		p.Name = file
	}
	return p, nil
}

// Validate は、プログラムがカタログのブロックだけで構成されているかを検査します。
// 引数の値は実行時に検査されます。
func (p *Program) Validate(c *blocks.Catalog) error {
	if len(p.Steps) == 0 {
		return errors.New("program has no steps")
	}
	return validateSteps(c, p.Steps, "steps")
}

func validateSteps(c *blocks.Catalog, steps []*Step, path string) error {
	for i, s := range steps {
		at := path + "[" + strconv.Itoa(i) + "]"
		if s == nil {
			return errors.Errorf("%s: empty step", at)
		}
		n := 0
		if s.Block != "" {
			n++
		}
		if s.Wait != "" {
			n++
		}
		if s.Repeat != 0 || s.Steps != nil {
			n++
		}
		if n != 1 {
			return errors.Errorf("%s: a step needs exactly one of block, wait or repeat", at)
		}
		switch {
		case s.Block != "":
			d, ok := c.Lookup(s.Block)
			if !ok {
				return errors.Errorf("%s: unknown block %q", at, s.Block)
			}
			if s.Body != nil && d.BlockType != blocks.BlockType_Conditional {
				return errors.Errorf("%s: block %s takes no body", at, s.Block)
			}
			if s.Store != "" && d.Arity == blocks.Arity_None {
				return errors.Errorf("%s: block %s has no value to store", at, s.Block)
			}
			if strings.HasPrefix(s.Store, "$") {
				return errors.Errorf("%s: store name %q must not start with $", at, s.Store)
			}
			if err := validateSteps(c, s.Body, at+".body"); err != nil {
				return err
			}
		case s.Wait != "":
			d, err := time.ParseDuration(s.Wait)
			if err != nil || d < 0 {
				return errors.Errorf("%s: invalid wait %q", at, s.Wait)
			}
			s.wait = d
		default:
			if s.Repeat < 0 {
				return errors.Errorf("%s: negative repeat count", at)
			}
			if len(s.Steps) == 0 {
				return errors.Errorf("%s: repeat has no steps", at)
			}
			if err := validateSteps(c, s.Steps, at+".steps"); err != nil {
				return err
			}
		}
	}
	return nil
}
