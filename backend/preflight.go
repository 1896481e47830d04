package backend

import (
	"bytes"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// Preflight checks the structure of data with pdfcpu in relaxed mode. A
// failure wraps [pdfhtml.ErrDocumentDecode].
func Preflight(data []byte) error {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return decodeError(err)
	}
	return nil
}
