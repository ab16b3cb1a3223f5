package scoring

import (
	"errors"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/types"
)

// ErrMissingData marks a player with no usable season for the request.
var ErrMissingData = errors.New("missing season data")

func missingData(p types.Player, ctx Context) error {
	msg := fmt.Sprintf("player %s has no season with passing data", p.ID)
	if ctx.SingleYear() {
		msg = fmt.Sprintf("player %s has no passing data for %d", p.ID, ctx.Year)
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(msg).
		WithCause(ErrMissingData)
}

// reason renders a rejection for a ranking row.
func reason(err error) string {
	var eb *errbuilder.ErrBuilder
	if errors.As(err, &eb) && eb.Msg != "" {
		return eb.Msg
	}
	return err.Error()
}
