package bot

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/apperr"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
)

type recordingSender struct {
	channels []string
	messages []*discordgo.MessageSend
	err      error
}

func (s *recordingSender) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.channels = append(s.channels, channelID)
	s.messages = append(s.messages, data)
	return &discordgo.Message{ID: "msg-1", ChannelID: channelID}, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestNotifierSendsToConfiguredChannel(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifier(sender, quietLogger())
	ctx := context.Background()

	require.NoError(t, n.Announce(ctx, &model.Announcement{CommunityID: "g1", ChannelID: "c1", Match: sampleMatch()}))
	require.NoError(t, n.PublishResult(ctx, &model.ResultAnnouncement{
		CommunityID: "g1",
		ChannelID:   "c2",
		Match:       sampleMatch(),
		Result:      model.MatchResult{Winner: "T1", Score1: 2, Score2: 0},
	}))

	assert.Equal(t, []string{"c1", "c2"}, sender.channels)
	assert.Len(t, sender.messages[0].Components, 1)
	assert.Empty(t, sender.messages[1].Components)
}

func TestNotifierWrapsDeliveryErrors(t *testing.T) {
	sender := &recordingSender{err: errors.New("HTTP 403 Forbidden")}
	n := NewNotifier(sender, quietLogger())

	err := n.Announce(context.Background(), &model.Announcement{ChannelID: "c1", Match: sampleMatch()})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindDelivery))

	err = n.PublishResult(context.Background(), &model.ResultAnnouncement{ChannelID: "c1", Match: sampleMatch()})
	assert.True(t, apperr.IsKind(err, apperr.KindDelivery))
}

type recordingRegistrar struct {
	appID    string
	commands []*discordgo.ApplicationCommand
}

func (r *recordingRegistrar) ApplicationCommandBulkOverwrite(appID string, _ string, commands []*discordgo.ApplicationCommand, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	r.appID = appID
	r.commands = commands
	return commands, nil
}

func TestRegisterCommands(t *testing.T) {
	r := &recordingRegistrar{}
	require.NoError(t, RegisterCommands(r, "app-1"))
	assert.Equal(t, "app-1", r.appID)

	names := make([]string, 0, len(r.commands))
	for _, c := range r.commands {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{CommandMatches, CommandStats, CommandLeaderboard, CommandHistory, CommandSetChannel}, names)

	assert.Error(t, RegisterCommands(r, ""))
}
