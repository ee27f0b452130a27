package out

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"pomoguard/internal/modules/settings/domain"
	settingsout "pomoguard/internal/modules/settings/port/out"
)

type YAMLCodec struct{}

func NewYAMLCodec() settingsout.Codec {
	return YAMLCodec{}
}

func (YAMLCodec) Encode(w io.Writer, settings domain.Settings) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(settings); err != nil {
		return fmt.Errorf("encode settings yaml: %w", err)
	}
	return enc.Close()
}

// Decode starts from the defaults so keys absent from the document keep them.
func (YAMLCodec) Decode(r io.Reader) (domain.Settings, error) {
	out := domain.Defaults()
	if err := yaml.NewDecoder(r).Decode(&out); err != nil {
		if err == io.EOF {
			return out, nil
		}
		return domain.Settings{}, fmt.Errorf("decode settings yaml: %w", err)
	}
	return out, nil
}
