package padstack

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Decode reads a padstack document from r.
func Decode(r io.Reader) (*Padstack, error) {
	p := new(Padstack)
	if err := json.NewDecoder(r).Decode(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Load reads the padstack document at path.
func Load(path string) (*Padstack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("padstack: %w", err)
	}
	defer f.Close()

	p, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Encode writes p to w as indented JSON.
func (p *Padstack) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(p)
}
