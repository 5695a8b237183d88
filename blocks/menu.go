package blocks

import (
	"strings"
)

// MenuItem は、メニューの選択肢です。表示名と、ボードに送る値の組です。
type MenuItem struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}

// Menu は、ブロックの引数から参照される、名前付きの選択肢の一覧です。
type Menu struct {
	Name            string     `json:"-"`
	AcceptReporters bool       `json:"acceptReporters,omitempty"`
	Items           []MenuItem `json:"items"`

	// reporter は、計算結果の値を Items のいずれかに対応付けます。AcceptReporters のときだけ設定されます。
	reporter func(v interface{}) (string, bool)
}

// Contains は、value がメニューの値に含まれるかを判定します。
func (m *Menu) Contains(value string) bool {
	for _, it := range m.Items {
		if it.Value == value {
			return true
		}
	}
	return false
}

// Resolve は、値または表示名（大文字小文字を区別しない）が s に一致する項目を探します。
func (m *Menu) Resolve(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if m.Contains(s) {
		return s, true
	}
	for _, it := range m.Items {
		if strings.EqualFold(it.Text, s) {
			return it.Value, true
		}
	}
	return "", false
}

// Values は、メニューの値を順に返します。
func (m *Menu) Values() []string {
	vs := make([]string, len(m.Items))
	for i, it := range m.Items {
		vs[i] = it.Value
	}
	return vs
}
