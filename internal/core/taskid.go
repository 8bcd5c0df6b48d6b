package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/valter-silva-au/agentswarm/pkg/models"
)

// NextLocalID allocates the next ID in the local-NNN family by scanning the
// given task set for the highest existing local sequence number. The result
// is max+1, zero-padded to three digits. IDs whose numeric portion does not
// parse are ignored.
func NextLocalID(tasks []models.Task) string {
	maxSeq := 0
	for _, t := range tasks {
		if !strings.HasPrefix(t.ID, models.LocalIDPrefix) {
			continue
		}
		seq, err := strconv.Atoi(strings.TrimPrefix(t.ID, models.LocalIDPrefix))
		if err != nil {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return fmt.Sprintf("%s%03d", models.LocalIDPrefix, maxSeq+1)
}
