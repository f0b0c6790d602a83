package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/Stachio-Dev/Stachio/cache"
	"github.com/Stachio-Dev/Stachio/helpers"
	"github.com/Stachio-Dev/Stachio/modules"
	"github.com/Stachio-Dev/Stachio/ratelimits"
	"github.com/Stachio-Dev/Stachio/verification"
	"github.com/Stachio-Dev/Stachio/warnings"
	"github.com/Stachio-Dev/Stachio/watchdog"
	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/raven-go"
	"github.com/karrick/tparse/v2"
)

const (
	// how long a verification attempt row may sit untouched before the
	// daily sweep collects it
	verificationAttemptMaxAge = 24 * time.Hour

	// delay between feed messages, the announcement channels are
	// shared across every server
	broadcastSendDelay = 1 * time.Second
)

// BotOnReady gets called after the gateway connected
func BotOnReady(session *discordgo.Session, event *discordgo.Ready) {
	log := cache.GetLogger()

	log.WithField("module", "bot").Info("Connected to discord!")
	log.WithField("module", "bot").Info("Invite link: " + fmt.Sprintf(
		"https://discordapp.com/oauth2/authorize?client_id=%s&scope=bot&permissions=%s",
		helpers.GetConfig().Path("discord.id").Data().(string),
		helpers.GetConfig().Path("discord.perms").Data().(string),
	))

	// Cache the session
	cache.SetSession(session)

	// Load and init all modules
	modules.Init(session)

	// request guild members from the gateway
	go func() {
		time.Sleep(30 * time.Second)

		for _, guild := range session.State.Guilds {
			err := session.RequestGuildMembers(guild.ID, "", 0)
			if err != nil {
				log.WithField("module", "bot").Error(fmt.Sprintf("Failed to request Members for Guild %s #%s: %s",
					guild.Name, guild.ID, err.Error()))
			}
		}
	}()

	// Run ratelimiter
	ratelimits.Container.Init()

	// Run the scheduler loops
	go broadcastLoop()
	go verificationSweepLoop()
	go weeklyReportLoop(session)
	go unmuteLoop(session)
}

func BotOnMemberListChunk(session *discordgo.Session, members *discordgo.GuildMembersChunk) {
	cache.GetLogger().WithField("module", "bot").Debug(
		fmt.Sprintf("received guild member chunk for guild: %s (%d members)",
			members.GuildID, len(members.Members)))
	var err error
	for _, member := range members.Members {
		err = session.State.MemberAdd(member)
		if err != nil {
			raven.CaptureError(fmt.Errorf("%#v", err), map[string]string{})
		}
	}
}

func BotOnGuildMemberAdd(session *discordgo.Session, member *discordgo.GuildMemberAdd) {
	modules.CallExtendedPluginOnGuildMemberAdd(
		member.Member,
	)
}

func BotOnGuildMemberRemove(session *discordgo.Session, member *discordgo.GuildMemberRemove) {
	modules.CallExtendedPluginOnGuildMemberRemove(
		member.Member,
	)
}

// BotOnMessageCreate gets called after a new message was sent
// This will be called after *every* message on *every* server so it should die as soon as possible
// or spawn costly work inside of coroutines.
func BotOnMessageCreate(session *discordgo.Session, message *discordgo.MessageCreate) {
	// Ignore other bots and @everyone/@here
	if message.Author == nil || message.Author.Bot || message.MentionEveryone {
		return
	}

	// Get the channel
	// Ignore the event if we cannot resolve the channel
	channel, err := helpers.GetChannel(message.ChannelID)
	if err != nil {
		go raven.CaptureError(err, map[string]string{})
		return
	}
	if channel.Type == discordgo.ChannelTypeDM {
		return
	}

	modules.CallExtendedPlugin(
		message.Content,
		message.Message,
	)

	prefix := helpers.GetPrefix()
	if prefix == "" {
		return
	}

	// Check if the message is prefixed for us
	// If not exit
	if !strings.HasPrefix(message.Content, prefix) {
		return
	}

	// Check if the user is allowed to request commands
	if !ratelimits.Container.HasKeys(message.Author.ID) && !helpers.IsBotAdmin(message.Author.ID) {
		session.ChannelMessageSend(message.ChannelID, fmt.Sprintf(
			"Whoa <@%s>, slow down. Try again in a few seconds.", message.Author.ID))

		ratelimits.Container.Set(message.Author.ID, -1)
		return
	}

	// Split the message into parts
	parts := strings.Fields(message.Content)

	// Save a sanitized version of the command (no prefix)
	cmd := strings.Replace(parts[0], prefix, "", 1)

	// Separate arguments from the command
	content := strings.TrimSpace(strings.Replace(message.Content, prefix+cmd, "", -1))

	// Log commands
	cache.GetLogger().WithField("module", "bot").Debug(fmt.Sprintf("%s (#%s): %s",
		message.Author.Username, message.Author.ID, message.Content))

	// Check if a module matches said command
	modules.CallBotPlugin(cmd, content, message.Message)
}

// BotOnReactionAdd gets called after a reaction is added
// This will be called after *every* reaction added on *every* server so it
// should die as soon as possible or spawn costly work inside of coroutines.
func BotOnReactionAdd(session *discordgo.Session, reaction *discordgo.MessageReactionAdd) {
	modules.CallExtendedPluginOnReactionAdd(reaction)
}

// broadcastLoop announces not-yet-logged block records to the
// configured feed channels
func broadcastLoop() {
	defer helpers.Recover()

	userFeedChannelID := helpers.GetConfig().Path("watchdog.user_feed_channel").Data().(string)
	guildFeedChannelID := helpers.GetConfig().Path("watchdog.guild_feed_channel").Data().(string)
	if userFeedChannelID == "" && guildFeedChannelID == "" {
		return
	}

	userBroadcaster := watchdog.NewBroadcaster(
		&watchdog.SubjectBroadcastSource{Subjects: &watchdog.SubjectStore{}},
		userFeedChannelID, broadcastSendDelay)
	guildBroadcaster := watchdog.NewBroadcaster(
		&watchdog.GuildBroadcastSource{},
		guildFeedChannelID, broadcastSendDelay)

	for {
		time.Sleep(30 * time.Second)

		if userFeedChannelID != "" {
			_, err := userBroadcaster.Run()
			helpers.RelaxLog(err)
		}
		if guildFeedChannelID != "" {
			_, err := guildBroadcaster.Run()
			helpers.RelaxLog(err)
		}
	}
}

// verificationSweepLoop garbage collects idle verification attempts
// once a day
func verificationSweepLoop() {
	defer helpers.Recover()

	engine := verification.NewEngine(&verification.MongoStore{}, nil)

	// accepts humanized durations like "1d" or "36h"
	maxAge := verificationAttemptMaxAge
	if ageText, ok := helpers.GetConfig().Path("verification.sweep_max_age").Data().(string); ok && ageText != "" {
		now := time.Now()
		until, err := tparse.AddDuration(now, ageText)
		if err != nil {
			cache.GetLogger().WithField("module", "bot").Warn(
				"invalid verification.sweep_max_age, using the default: " + err.Error())
		} else {
			maxAge = until.Sub(now)
		}
	}

	for {
		time.Sleep(24 * time.Hour)

		_, err := engine.SweepExpired(time.Now().Add(-maxAge))
		helpers.RelaxLog(err)
	}
}

// unmuteLoop takes the mute role off members whose mute ran out, the
// rows are persisted so mutes survive restarts
func unmuteLoop(session *discordgo.Session) {
	defer helpers.Recover()

	store := &warnings.MongoStore{}

	for {
		time.Sleep(1 * time.Minute)

		_, err := warnings.SweepExpiredMutes(store, session.GuildMemberRoleRemove)
		helpers.RelaxLog(err)
	}
}

// weeklyReportLoop posts the aggregate watchdog report once a week
func weeklyReportLoop(session *discordgo.Session) {
	defer helpers.Recover()

	reportChannelID := helpers.GetConfig().Path("watchdog.report_channel").Data().(string)
	if reportChannelID == "" {
		return
	}

	reporter := &watchdog.Reporter{
		Subjects:   &watchdog.SubjectStore{},
		Appeals:    &watchdog.AppealStore{},
		Membership: watchdog.NewSessionMembership(session),
		ChannelID:  reportChannelID,
	}

	for {
		time.Sleep(7 * 24 * time.Hour)

		err := reporter.Send()
		helpers.RelaxLog(err)
	}
}
