package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewPOSOrderNumber returns a register receipt number of the form
// POS-YYYYMMDD-XXXXXXXX. The suffix is random, uniqueness is enforced by the
// orders.order_number index.
func NewPOSOrderNumber(now time.Time) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("POS-%s-%s", now.Format("20060102"), strings.ToUpper(raw[:8]))
}
