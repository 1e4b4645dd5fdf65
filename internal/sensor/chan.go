package sensor

import "context"

// Chan forwards events pushed by another producer, such as a websocket
// client, until the channel closes.
type Chan <-chan Event

func (c Chan) Run(ctx context.Context, out chan<- Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-c:
			if !ok {
				return nil
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
