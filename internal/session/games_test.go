// internal/session/games_test.go
package session

import (
	"errors"
	"testing"

	"github.com/JokerTrickster/board-game-app-sub000/internal/models"
	"github.com/JokerTrickster/board-game-app-sub000/internal/protocol"
	"github.com/JokerTrickster/board-game-app-sub000/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findItPayload(info protocol.GameInfo, users ...protocol.User) protocol.Payload {
	return protocol.Payload{Users: users, FindIt: &protocol.FindItGameInfo{
		GameInfo:       info,
		Life:           3,
		ItemHintCount:  1,
		ItemTimerCount: 1,
		NormalImageURL: "https://img/normal.png",
	}}
}

func frogPayload(info protocol.FrogGameInfo, users ...protocol.User) protocol.Payload {
	return protocol.Payload{Users: users, Frog: &info}
}

func slimePayload(round int, king int, users ...protocol.User) protocol.Payload {
	return protocol.Payload{Users: users, SlimeWar: &protocol.SlimeWarGameInfo{GameInfo: room(round, true), KingIndex: king}}
}

func withCards(u protocol.User, cards ...models.Card) protocol.User {
	u.Cards = cards
	return u
}

func withOwned(u protocol.User, cells ...int) protocol.User {
	u.OwnedMapIDs = cells
	return u
}

func TestFindItClicksAndItems(t *testing.T) {
	h := newHarness(t, models.GameFindIt)
	h.connect(t)

	start := findItPayload(room(1, true), pair(true)...)
	start.FindIt.CorrectPositions = []protocol.Position{{X: 100, Y: 100, UserID: oppID}}
	h.conn.deliver(t, "START", start)
	require.Equal(t, StateActive, h.state(t))
	assert.Equal(t, 60, h.c.Snapshot().TimerMax)

	assert.ErrorIs(t, h.c.SubmitPosition(h.ctx, 105, 100), ErrAlreadyFound)
	require.NoError(t, h.c.SubmitPosition(h.ctx, 300, 300))
	assert.Equal(t, sentCmd{event: protocol.EventSubmitPosition, body: protocol.PositionMessage{Round: 1, X: 300, Y: 300}}, h.conn.last())

	wrong := findItPayload(room(1, true), pair(true)...)
	wrong.FindIt.CorrectPositions = start.FindIt.CorrectPositions
	wrong.FindIt.WrongPosition = &protocol.Position{X: 300, Y: 300, UserID: meID}
	wrong.FindIt.Life = 2
	h.conn.deliver(t, "SUBMIT_POSITION", wrong)
	h.state(t)
	assert.Len(t, h.view.effectsOf(EffectWrong), 1)
	snap := h.c.Snapshot()
	assert.Len(t, snap.FindIt.Wrong, 1)
	assert.Equal(t, 2, snap.FindIt.Life)

	right := findItPayload(room(1, true), pair(true)...)
	right.FindIt.CorrectPositions = []protocol.Position{{X: 100, Y: 100, UserID: oppID}, {X: 400, Y: 50, UserID: meID}}
	h.conn.deliver(t, "SUBMIT_POSITION", right)
	h.state(t)
	correct := h.view.effectsOf(EffectCorrect)
	require.Len(t, correct, 1)
	assert.Equal(t, meID, correct[0].UserID)

	require.NoError(t, h.c.UseHint(h.ctx))
	assert.Equal(t, protocol.EventHintItem, h.conn.last().event)
	hinted := findItPayload(room(1, true), pair(true)...)
	hinted.FindIt.ItemHintCount = 0
	hinted.FindIt.HintPosition = &protocol.Position{X: 10, Y: 20}
	h.conn.deliver(t, "HINT_ITEM", hinted)
	h.state(t)
	assert.Len(t, h.view.effectsOf(EffectHint), 1)
	assert.ErrorIs(t, h.c.UseHint(h.ctx), ErrNoItemsLeft)
}

func TestFindItTimerStopPausesCountdown(t *testing.T) {
	h := newHarness(t, models.GameFindIt)
	h.connect(t)
	info := room(1, true)
	info.Timer = 20
	h.conn.deliver(t, "START", findItPayload(info, pair(true)...))
	require.Equal(t, StateActive, h.state(t))

	h.tick(t)
	assert.Equal(t, 19, h.c.Snapshot().TimerValue)

	require.NoError(t, h.c.UseTimerStop(h.ctx))
	h.conn.deliver(t, "TIMER_ITEM", findItPayload(room(1, true), pair(true)...))
	h.state(t)
	assert.True(t, h.c.Snapshot().TimerPause)
	assert.ErrorIs(t, h.c.UseTimerStop(h.ctx), ErrInvalidMove)

	for i := 0; i < 5; i++ {
		h.tick(t)
		assert.Equal(t, 19, h.c.Snapshot().TimerValue)
	}
	h.tick(t)
	assert.Equal(t, 18, h.c.Snapshot().TimerValue)
	assert.False(t, h.c.Snapshot().TimerPause)
}

func TestFindItOwnerSendsTimeout(t *testing.T) {
	h := newHarness(t, models.GameFindIt)
	h.connect(t)
	info := room(1, true)
	info.Timer = 1
	h.conn.deliver(t, "START", findItPayload(info, pair(true)...))
	require.Equal(t, StateActive, h.state(t))

	h.tick(t)
	assert.Equal(t, 1, h.conn.count(protocol.EventTimeOut))
}

func TestFrogDraftAndLoan(t *testing.T) {
	h := newHarness(t, models.GameFrog)
	h.connect(t)

	hand := []models.Card{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5}}
	users := func(cards []models.Card) []protocol.User {
		return []protocol.User{
			withCards(user(meID, 0, true, "red"), cards...),
			withCards(user(oppID, 1, false, "blue"), models.Card{ID: 9, MapID: 12}),
		}
	}
	board := []models.Card{{ID: 20, MapID: 33, State: models.CardBoard}, {ID: 21, MapID: 12, State: models.CardBoard}}

	h.conn.deliver(t, "START", frogPayload(protocol.FrogGameInfo{GameInfo: room(0, true), BoardCards: board}, users(hand)...))
	require.Equal(t, StateActive, h.state(t))
	assert.Equal(t, "blue", h.c.Snapshot().Board.Owner(12))

	assert.ErrorIs(t, h.c.ImportCards(h.ctx, []int{33}), ErrInvalidMove)
	assert.ErrorIs(t, h.c.ImportSingleCard(h.ctx, 34), ErrInvalidMove)
	assert.ErrorIs(t, h.c.ImportSingleCard(h.ctx, 12), ErrInvalidMove, "claimed slot")
	require.NoError(t, h.c.ImportSingleCard(h.ctx, 33))
	assert.Equal(t, sentCmd{event: protocol.EventImportSingleCard, body: protocol.CardMessage{CardID: 20, MapID: 33}}, h.conn.last())

	assert.ErrorIs(t, h.c.Discard(h.ctx, 1), ErrInvalidMove, "must draw first")
	drawn := append(append([]models.Card(nil), hand...), models.Card{ID: 20, MapID: 33})
	h.conn.deliver(t, "IMPORT_SINGLE_CARD", frogPayload(protocol.FrogGameInfo{GameInfo: room(0, true)}, users(drawn)...))
	h.state(t)
	assert.ErrorIs(t, h.c.Discard(h.ctx, 99), ErrUnknownCard)
	require.NoError(t, h.c.Discard(h.ctx, 1))

	// opponent's turn, then the opponent discards
	h.conn.deliver(t, "DISCARD", frogPayload(protocol.FrogGameInfo{GameInfo: room(1, true)}, users(hand)...))
	h.conn.deliver(t, "DISCARD", frogPayload(protocol.FrogGameInfo{
		GameInfo:    room(2, true),
		DiscardCard: &models.Card{ID: 40},
		IsLoan:      true,
	}, users(hand)...))
	h.state(t)
	snap := h.c.Snapshot()
	require.NotNil(t, snap.Frog.LastDiscard)
	assert.Equal(t, oppID, snap.Frog.DiscardOwner)

	assert.ErrorIs(t, h.c.Loan(h.ctx, 41), ErrInvalidMove)
	require.NoError(t, h.c.Loan(h.ctx, 40))
	assert.Equal(t, protocol.EventLoan, h.conn.last().event)

	h.conn.deliver(t, "SUCCESS_LOAN", frogPayload(protocol.FrogGameInfo{GameInfo: room(2, true)}, users(hand)...))
	h.state(t)
	assert.Len(t, h.view.effectsOf(EffectLoanSuccess), 1)
	assert.Nil(t, h.c.Snapshot().Frog.LastDiscard)
}

func TestSequenceDetectionClaimsGame(t *testing.T) {
	h := newHarness(t, models.GameSequence)
	startSequence(t, h, 0)

	move := func(round int, mine ...int) {
		h.conn.deliver(t, "MOVE", seqPayload(room(round, true),
			withOwned(user(meID, 0, true, "red"), mine...),
			withOwned(user(oppID, 1, false, "blue"), 50),
		))
		h.state(t)
	}

	move(1, 11, 12, 13, 14, 15)
	seqs := h.view.effectsOf(EffectSequence)
	require.Len(t, seqs, 1)
	assert.Equal(t, []int{11, 12, 13, 14, 15}, seqs[0].Cells)
	snap := h.c.Snapshot()
	assert.Equal(t, 1, snap.Me().Sequences)
	assert.Zero(t, h.conn.count(protocol.EventGameOver))

	move(2, 11, 12, 13, 14, 15, 16)
	assert.Len(t, h.view.effectsOf(EffectSequence), 1, "a sixth chip extends, it does not add")

	move(3, 11, 12, 13, 14, 15, 16, 2, 3, 4, 5)
	assert.Len(t, h.view.effectsOf(EffectSequence), 2, "corner plus four")
	snap = h.c.Snapshot()
	assert.Equal(t, 2, snap.Me().Sequences)
	assert.Equal(t, 1, h.conn.count(protocol.EventGameOver))

	move(4, 11, 12, 13, 14, 15, 16, 2, 3, 4, 5, 77)
	assert.Equal(t, 1, h.conn.count(protocol.EventGameOver))
}

func TestResyncKeepsRecordedSequences(t *testing.T) {
	h := newHarness(t, models.GameSequence)
	startSequence(t, h, 0)

	move := func(ev string, round int, mine ...int) {
		h.conn.deliver(t, ev, seqPayload(room(round, true),
			withOwned(user(meID, 0, true, "red"), mine...),
			withOwned(user(oppID, 1, false, "blue"), 50),
		))
		h.state(t)
	}

	move("MOVE", 1, 23, 24, 25, 26, 27)
	move("MOVE", 2, 21, 22, 23, 24, 25, 26, 27)
	want := []rules.Sequence{{Cells: []int{23, 24, 25, 26, 27}}}
	require.Equal(t, want, h.c.Snapshot().Sequence.Sequences[meID])

	h.conn.close(errors.New("network lost"))
	require.Equal(t, StateDisconnected, h.state(t))
	require.NoError(t, h.c.Reconnect(h.ctx, ""))

	// a fresh scan of 21..27 would record 21..25 instead
	move("JOIN", 3, 21, 22, 23, 24, 25, 26, 27)
	require.Equal(t, StateActive, h.state(t))
	snap := h.c.Snapshot()
	assert.Equal(t, want, snap.Sequence.Sequences[meID])
	assert.Equal(t, 1, snap.Me().Sequences)
}

func TestPlaceCardValidation(t *testing.T) {
	h := newHarness(t, models.GameSequence)
	h.connect(t)

	two := models.Card{ID: 5, Suit: "heart", Rank: 2, MapIDs: []int{12, 55}}
	oneEyed := models.Card{ID: 9, Suit: "spade", Rank: models.RankJack}
	dead := models.Card{ID: 7, Suit: "club", Rank: 3, MapIDs: []int{40}}
	users := []protocol.User{
		withOwned(withCards(user(meID, 0, true, "red"), two, oneEyed, dead), 11, 13, 14, 15),
		withOwned(user(oppID, 1, false, "blue"), 30, 40),
	}
	h.conn.deliver(t, "START", seqPayload(room(0, true), users...))
	require.Equal(t, StateActive, h.state(t))

	_, err := h.c.PlaceCard(h.ctx, 99, 12)
	assert.ErrorIs(t, err, ErrUnknownCard)

	_, err = h.c.PlaceCard(h.ctx, 5, 20)
	assert.ErrorIs(t, err, ErrInvalidMove)
	assert.ErrorIs(t, err, rules.ErrCardMismatch)

	_, err = h.c.PlaceCard(h.ctx, 9, 13)
	assert.ErrorIs(t, err, rules.ErrNotOpponent)

	preview, err := h.c.PlaceCard(h.ctx, 5, 12)
	require.NoError(t, err)
	require.Len(t, preview, 1)
	assert.Equal(t, []int{11, 12, 13, 14, 15}, preview[0].Cells)
	assert.Equal(t, sentCmd{event: protocol.EventMove, body: protocol.CardMessage{CardID: 5, MapID: 12}}, h.conn.last())

	preview, err = h.c.PlaceCard(h.ctx, 9, 30)
	require.NoError(t, err)
	assert.Empty(t, preview)

	assert.ErrorIs(t, h.c.DiscardDeadCard(h.ctx, 5), ErrInvalidMove)
	require.NoError(t, h.c.DiscardDeadCard(h.ctx, 7))
	assert.Equal(t, protocol.EventDiscard, h.conn.last().event)

	assert.ErrorIs(t, h.c.Move(h.ctx, 5), ErrWrongGame)
	assert.ErrorIs(t, h.c.UseHint(h.ctx), ErrWrongGame)

	h.conn.deliver(t, "MOVE", seqPayload(room(1, true), users...))
	h.state(t)
	_, err = h.c.PlaceCard(h.ctx, 5, 12)
	assert.ErrorIs(t, err, ErrNotYourTurn)
	assert.ErrorIs(t, h.c.DrawCard(h.ctx), ErrNotYourTurn)
}

func TestSlimeWarMoves(t *testing.T) {
	h := newHarness(t, models.GameSlimeWar)
	h.connect(t)

	right := models.Card{ID: 1, Direction: "right", Magnitude: 1}
	left := models.Card{ID: 2, Direction: "left", Magnitude: 1}
	me := withCards(user(meID, 0, true, "red"), right, left)
	me.HeroCount = 1
	users := []protocol.User{me, withOwned(user(oppID, 1, false, "blue"), 40, 31)}

	h.conn.deliver(t, "START", slimePayload(0, 41, users...))
	require.Equal(t, StateActive, h.state(t))

	snap := h.c.Snapshot()
	assert.Equal(t, 41, snap.SlimeWar.King)
	assert.Equal(t, 4, snap.Territory[oppID], "40 and 31 form one region of two")
	assert.Equal(t, 0, snap.Territory[meID])
	assert.True(t, snap.Me().CanMove)

	require.NoError(t, h.c.Move(h.ctx, 1))
	assert.Equal(t, sentCmd{event: protocol.EventMove, body: protocol.CardMessage{CardID: 1}}, h.conn.last())

	err := h.c.Move(h.ctx, 2)
	assert.ErrorIs(t, err, ErrInvalidMove)
	assert.ErrorIs(t, err, rules.ErrCellTaken)

	err = h.c.Hero(h.ctx, 1)
	assert.ErrorIs(t, err, rules.ErrNotOpponent)
	require.NoError(t, h.c.Hero(h.ctx, 2))
	assert.Equal(t, protocol.EventHero, h.conn.last().event)

	require.NoError(t, h.c.DrawCard(h.ctx))
	assert.Equal(t, protocol.EventGetCard, h.conn.last().event)

	me.OwnedMapIDs = []int{42}
	h.conn.deliver(t, "MOVE", slimePayload(1, 42, me, withOwned(user(oppID, 1, false, "blue"), 40, 31)))
	h.state(t)
	snap = h.c.Snapshot()
	assert.Equal(t, 42, snap.SlimeWar.King)
	assert.Equal(t, 1, snap.Territory[meID])
	assert.ErrorIs(t, h.c.Move(h.ctx, 1), ErrNotYourTurn)
}
