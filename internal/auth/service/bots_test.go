package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aussiebroadwan/botdash/internal/auth/domain"
	"github.com/aussiebroadwan/botdash/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

const (
	testFernetKey   = "cw_0x689RpI-jtRR7oE8h_eQsKImvJapLeSbXpwF4e4="
	testFernetToken = "gAAAAAAdwJ6wAAECAwQFBgcICQoLDA0ODy021cpGVWKZ_eEwCGM4BLLF_5CV9dOPmrhuVUPgJobwOz7JcbmrR64jVmpU4IwqDA=="
)

type fakeDirectory struct {
	bots   map[string]domain.BotIdentity
	guilds map[string]domain.GuildInfo
	err    error

	botCalls   atomic.Int32
	guildCalls atomic.Int32
	release    chan struct{}
}

func (d *fakeDirectory) GetBotIdentity(_ context.Context, tenantID string) (*domain.BotIdentity, error) {
	d.botCalls.Add(1)
	if d.release != nil {
		<-d.release
	}
	if d.err != nil {
		return nil, d.err
	}
	b, ok := d.bots[tenantID]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (d *fakeDirectory) GetGuild(_ context.Context, guildID string) (*domain.GuildInfo, error) {
	d.guildCalls.Add(1)
	g, ok := d.guilds[guildID]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func newTestBots(t *testing.T, dir *fakeDirectory) *BotService {
	t.Helper()
	dec, err := cryptox.NewFernetDecoder(testFernetKey)
	require.NoError(t, err)
	return NewBotService(dir, dec, 0, 0)
}

func TestBotService_DecodesSealedCredential(t *testing.T) {
	dir := &fakeDirectory{bots: map[string]domain.BotIdentity{
		"sealed": {TenantID: "sealed", Username: "bot", Token: testFernetToken},
		"plain":  {TenantID: "plain", Username: "bot", Token: "legacy-plain-token"},
	}}
	svc := newTestBots(t, dir)
	ctx := context.Background()

	bot, err := svc.GetBotIdentity(ctx, "sealed")
	require.NoError(t, err)
	require.Equal(t, "hello", bot.Token)

	bot, err = svc.GetBotIdentity(ctx, "plain")
	require.NoError(t, err)
	require.Equal(t, "legacy-plain-token", bot.Token)
}

func TestBotService_CachesIdentities(t *testing.T) {
	dir := &fakeDirectory{
		bots:    map[string]domain.BotIdentity{"t1": {TenantID: "t1", Username: "bot"}},
		release: make(chan struct{}),
	}
	svc := newTestBots(t, dir)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bot, err := svc.GetBotIdentity(ctx, "t1")
			if err == nil && bot.Username != "bot" {
				t.Error("unexpected bot")
			}
		}()
	}
	close(dir.release)
	wg.Wait()

	_, err := svc.GetBotIdentity(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, int32(1), dir.botCalls.Load())
}

func TestBotService_NotFoundIsCached(t *testing.T) {
	dir := &fakeDirectory{}
	svc := newTestBots(t, dir)
	ctx := context.Background()

	_, err := svc.GetBotIdentity(ctx, "missing")
	require.ErrorIs(t, err, ErrBotNotFound)
	_, err = svc.GetBotIdentity(ctx, "missing")
	require.ErrorIs(t, err, ErrBotNotFound)
	require.Equal(t, int32(1), dir.botCalls.Load())

	_, err = svc.GetGuild(ctx, "g")
	require.ErrorIs(t, err, ErrGuildNotFound)
	_, err = svc.GetGuild(ctx, "g")
	require.ErrorIs(t, err, ErrGuildNotFound)
	require.Equal(t, int32(1), dir.guildCalls.Load())
}

func TestBotService_ErrorsAreNotCached(t *testing.T) {
	boom := errors.New("provisioner down")
	dir := &fakeDirectory{err: boom}
	svc := newTestBots(t, dir)
	ctx := context.Background()

	_, err := svc.GetBotIdentity(ctx, "t1")
	require.ErrorIs(t, err, boom)
	_, err = svc.GetBotIdentity(ctx, "t1")
	require.ErrorIs(t, err, boom)
	require.Equal(t, int32(2), dir.botCalls.Load())
}

func TestBotService_Invalidate(t *testing.T) {
	dir := &fakeDirectory{bots: map[string]domain.BotIdentity{"t1": {TenantID: "t1"}}}
	svc := newTestBots(t, dir)
	ctx := context.Background()

	_, err := svc.GetBotIdentity(ctx, "t1")
	require.NoError(t, err)
	svc.InvalidateBot("t1")
	_, err = svc.GetBotIdentity(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, int32(2), dir.botCalls.Load())
}

func TestMaskToken(t *testing.T) {
	require.Equal(t, "", MaskToken(""))
	require.Equal(t, "***", MaskToken("abc"))
	require.Equal(t, "********wxyz", MaskToken("MTAxMDEwMTA.abc.wxyz"))
}
