package reader

import (
	"iter"

	"github.com/sio/issyours/internal/models"
)

// Interleave merges two sequences that are already sorted by creation time
// in the same direction. Comments win ties. The first error ends the merge.
func Interleave[C, E models.FeedItem](comments iter.Seq2[C, error], events iter.Seq2[E, error], desc bool) iter.Seq2[models.FeedItem, error] {
	return func(yield func(models.FeedItem, error) bool) {
		nextComment, stopComments := iter.Pull2(comments)
		defer stopComments()
		nextEvent, stopEvents := iter.Pull2(events)
		defer stopEvents()

		comment, commentErr, haveComment := nextComment()
		event, eventErr, haveEvent := nextEvent()

		for haveComment || haveEvent {
			if haveComment && commentErr != nil {
				yield(nil, commentErr)
				return
			}
			if haveEvent && eventErr != nil {
				yield(nil, eventErr)
				return
			}

			if haveComment && (!haveEvent || commentFirst(comment, event, desc)) {
				if !yield(comment, nil) {
					return
				}
				comment, commentErr, haveComment = nextComment()
				continue
			}

			if !yield(event, nil) {
				return
			}
			event, eventErr, haveEvent = nextEvent()
		}
	}
}

func commentFirst(comment, event models.FeedItem, desc bool) bool {
	if desc {
		return !comment.CreatedAt().Before(event.CreatedAt())
	}
	return !comment.CreatedAt().After(event.CreatedAt())
}
