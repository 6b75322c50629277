package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"

	"github.com/five82/feeds/internal/api"
	"github.com/five82/feeds/internal/events"
	"github.com/five82/feeds/internal/merge"
	"github.com/five82/feeds/internal/metrics"
	"github.com/five82/feeds/internal/optimistic"
	"github.com/five82/feeds/internal/state"
)

const (
	pendingPrefix = "pending:"
	keyOwnVotes   = "own_votes"
)

var (
	// ErrClosed is returned when voting on a closed poll.
	ErrClosed = errors.New("poll is closed")
	// ErrMaxVotes is returned when a vote would exceed the poll's limit.
	ErrMaxVotes = errors.New("maximum votes reached")
	// ErrAnswersNotAllowed is returned when answering a poll without free-text answers.
	ErrAnswersNotAllowed = errors.New("poll does not allow answers")

	// errNoChange aborts an optimistic step that has nothing to do.
	errNoChange = errors.New("no change")
)

// Options configures a Poll.
type Options struct {
	// ActivityID is the activity the poll is attached to.
	ActivityID string
	UserID     string
	Metrics    *metrics.Metrics
}

// Poll is the controller of one poll.
type Poll struct {
	client  api.FeedsAPI
	opts    Options
	id      string
	store   *state.Store[State]
	tracker *optimistic.Tracker
}

// New returns a Poll seeded with p.
func New(client api.FeedsAPI, p api.Poll, opts Options) *Poll {
	s := FromPoll(p)
	return &Poll{
		client:  client,
		opts:    opts,
		id:      p.ID,
		store:   state.New(&s),
		tracker: optimistic.NewTracker(),
	}
}

// ID returns the poll id.
func (p *Poll) ID() string { return p.id }

// State returns the current snapshot.
func (p *Poll) State() *State { return p.store.GetState() }

// Store exposes the store for subscriptions.
func (p *Poll) Store() *state.Store[State] { return p.store }

// HandleEvent applies a realtime event. It reports whether the snapshot
// changed.
func (p *Poll) HandleEvent(ev events.Event) bool {
	changed := p.store.Reduce(func(cur *State) (*State, bool) {
		patch, ok := Reduce(cur, ev, p.opts.UserID)
		if !ok {
			return nil, false
		}
		next := *cur
		patch.Apply(&next)
		return &next, true
	})
	p.opts.Metrics.EventHandled(ev.Type(), changed)
	return changed
}

type voteSnapshot struct {
	tally Tally
	own   []api.PollVote
}

// optimisticVote applies fn to the tally and own votes and returns what they
// were before, tagged as the newest own-vote mutation. An error from fn leaves
// the snapshot and the newest tag untouched.
func (p *Poll) optimisticVote(fn func(cur *State) (Tally, []api.PollVote, error)) (before voteSnapshot, tag optimistic.Tag, err error) {
	p.store.Reduce(func(cur *State) (*State, bool) {
		tally, own, ferr := fn(cur)
		if ferr != nil {
			err = ferr
			return nil, false
		}
		before = voteSnapshot{tally: cur.Tally, own: cur.OwnVotes}
		tag = p.tracker.Begin(keyOwnVotes)
		next := *cur
		next.Tally = tally
		next.OwnVotes = own
		return &next, true
	})
	return before, tag, err
}

func (p *Poll) rollback(tag optimistic.Tag, before voteSnapshot, cause error) {
	if !p.tracker.IsLatest(keyOwnVotes, tag) {
		return
	}
	p.store.PartialNext(func(d *State) {
		d.Tally = before.tally
		d.OwnVotes = before.own
		d.LastError = cause
	})
	p.opts.Metrics.Rollback("poll_vote")
	glog.Infof("poll %s: rolled back vote: %v", p.id, cause)
}

// reconcile adopts the server's answer to a vote mutation.
func (p *Poll) reconcile(tag optimistic.Tag, pendingID string, resp *api.PollVoteResponse, removed bool) {
	if !p.tracker.IsLatest(keyOwnVotes, tag) || resp == nil {
		return
	}
	p.store.PartialNext(func(d *State) {
		own := d.OwnVotes
		if pendingID != "" {
			own, _ = merge.Remove(own, voteID, pendingID)
		}
		if resp.Vote != nil {
			vote := *resp.Vote
			if vote.UserID == "" {
				vote.UserID = p.opts.UserID
			}
			own = MergeOwnVotes(own, vote, removed, d.Poll.EnforceUniqueVote, p.opts.UserID)
		}
		d.OwnVotes = own
		if resp.Poll != nil {
			d.Tally = tallyOf(*resp.Poll)
			d.IsClosed = resp.Poll.IsClosed
		}
		d.LastError = nil
	})
}

// CastVote votes for optionID. The tally and own votes change at once; with
// enforce-unique-vote the previous own vote is revoked from the tally first.
// Voting again for an option already voted is a no-op.
func (p *Poll) CastVote(ctx context.Context, optionID string) error {
	pending := api.PollVote{
		ID:        pendingPrefix + ulid.Make().String(),
		PollID:    p.id,
		OptionID:  optionID,
		UserID:    p.opts.UserID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	before, tag, err := p.optimisticVote(func(cur *State) (Tally, []api.PollVote, error) {
		if cur.IsClosed {
			return Tally{}, nil, ErrClosed
		}
		if _, ok := cur.OwnVoteFor(optionID); ok {
			return Tally{}, nil, errNoChange
		}
		tally := cur.Tally
		own := cur.OwnVotes
		if cur.Poll.EnforceUniqueVote {
			kept := make([]api.PollVote, 0, len(own))
			for _, v := range own {
				if v.IsAnswer {
					kept = append(kept, v)
					continue
				}
				tally = tally.withVote(v.OptionID, -1)
			}
			own = kept
		} else if limit := cur.Poll.MaxVotesAllowed; limit > 0 && cur.ownOptionVotes() >= limit {
			return Tally{}, nil, ErrMaxVotes
		}
		tally = tally.withVote(optionID, 1)
		own = append(append([]api.PollVote(nil), own...), pending)
		return tally, own, nil
	})
	if errors.Is(err, errNoChange) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("vote on poll %s: %w", p.id, err)
	}
	defer p.tracker.Done(keyOwnVotes, tag)

	resp, err := p.client.CastPollVote(ctx, api.CastPollVoteRequest{
		ActivityID: p.opts.ActivityID,
		PollID:     p.id,
		OptionID:   optionID,
	})
	if err != nil {
		p.rollback(tag, before, err)
		return fmt.Errorf("vote on poll %s: %w", p.id, err)
	}
	p.reconcile(tag, pending.ID, resp, false)
	return nil
}

// CastAnswer submits a free-text answer, replacing the previous own answer.
func (p *Poll) CastAnswer(ctx context.Context, text string) error {
	pending := api.PollVote{
		ID:         pendingPrefix + ulid.Make().String(),
		PollID:     p.id,
		IsAnswer:   true,
		AnswerText: text,
		UserID:     p.opts.UserID,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	before, tag, err := p.optimisticVote(func(cur *State) (Tally, []api.PollVote, error) {
		if cur.IsClosed {
			return Tally{}, nil, ErrClosed
		}
		if !cur.Poll.AllowAnswers {
			return Tally{}, nil, ErrAnswersNotAllowed
		}
		tally := cur.Tally
		if _, ok := cur.OwnAnswer(); !ok {
			tally = tally.withAnswer(1)
		}
		return tally, MergeOwnVotes(cur.OwnVotes, pending, false, false, p.opts.UserID), nil
	})
	if err != nil {
		return fmt.Errorf("answer poll %s: %w", p.id, err)
	}
	defer p.tracker.Done(keyOwnVotes, tag)

	resp, err := p.client.CastPollVote(ctx, api.CastPollVoteRequest{
		ActivityID: p.opts.ActivityID,
		PollID:     p.id,
		AnswerText: text,
	})
	if err != nil {
		p.rollback(tag, before, err)
		return fmt.Errorf("answer poll %s: %w", p.id, err)
	}
	p.reconcile(tag, pending.ID, resp, false)
	return nil
}

// RemoveVote withdraws the own vote id. Unknown votes are a no-op.
func (p *Poll) RemoveVote(ctx context.Context, id string) error {
	before, tag, err := p.optimisticVote(func(cur *State) (Tally, []api.PollVote, error) {
		idx := merge.IndexOf(cur.OwnVotes, voteID, id)
		if idx < 0 {
			return Tally{}, nil, errNoChange
		}
		v := cur.OwnVotes[idx]
		tally := cur.Tally
		if v.IsAnswer {
			tally = tally.withAnswer(-1)
		} else {
			tally = tally.withVote(v.OptionID, -1)
		}
		own, _ := merge.Remove(cur.OwnVotes, voteID, id)
		return tally, own, nil
	})
	if errors.Is(err, errNoChange) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("remove vote on poll %s: %w", p.id, err)
	}
	defer p.tracker.Done(keyOwnVotes, tag)

	resp, err := p.client.RemovePollVote(ctx, p.opts.ActivityID, p.id, id)
	if err != nil {
		p.rollback(tag, before, err)
		return fmt.Errorf("remove vote on poll %s: %w", p.id, err)
	}
	if resp != nil && resp.Vote == nil {
		resp.Vote = &api.PollVote{ID: id, UserID: p.opts.UserID}
	}
	p.reconcile(tag, "", resp, true)
	return nil
}

// Close stops the poll from accepting votes.
func (p *Poll) Close(ctx context.Context) error {
	if p.State().IsClosed {
		return nil
	}
	resp, err := p.client.ClosePoll(ctx, p.id)
	if err != nil {
		p.store.PartialNext(func(d *State) { d.LastError = err })
		return fmt.Errorf("close poll %s: %w", p.id, err)
	}
	p.store.PartialNext(func(d *State) {
		if resp != nil && resp.Poll.ID == p.id {
			d.Poll = resp.Poll
			d.Tally = tallyOf(resp.Poll)
		}
		d.IsClosed = true
		d.LastError = nil
	})
	return nil
}
