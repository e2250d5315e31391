package detection

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mwiater/compbench/internal/dataset"
)

// PromptIndexFromImageID derives the prompt index from an image id of the form
// <index>_<level>_<prompt>, or from a bare integer id.
func PromptIndexFromImageID(imageID string) (int, error) {
	id := strings.TrimSpace(imageID)
	token := id
	if i := strings.IndexByte(id, '_'); i >= 0 {
		token = id[:i]
	}
	n, err := strconv.Atoi(token)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: image id %q has no leading prompt index", ErrMalformedEntry, imageID)
	}
	return n, nil
}

// ImageStem renders the file stem used for the generated image of a record:
// <index>_<level>_<prompt with spaces replaced by underscores>.
func ImageStem(rec dataset.PromptRecord) string {
	return fmt.Sprintf("%d_%d_%s", rec.Index, rec.Level, strings.ReplaceAll(rec.Prompt, " ", "_"))
}
