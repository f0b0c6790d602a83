package plugins

import (
	"fmt"
	"strings"
	"time"

	"github.com/Stachio-Dev/Stachio/cache"
	"github.com/Stachio-Dev/Stachio/helpers"
	"github.com/Stachio-Dev/Stachio/models"
	"github.com/Stachio-Dev/Stachio/watchdog"
	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
)

// delay between punitive actions during a bulk scan, the gateway
// throttles faster bursts anyway
const watchdogScanDelay = 1 * time.Second

const watchdogConfirmTimeout = 2 * time.Minute

type Watchdog struct {
	engine   *watchdog.Engine
	subjects *watchdog.SubjectStore
	appeals  *watchdog.AppealStore
	policies *watchdog.PolicyStore
	scanner  *watchdog.Scanner
}

func (w *Watchdog) Commands() []string {
	return []string{
		"watchdog",
		"wd",
		"flag",
		"appeal",
	}
}

func (w *Watchdog) Init(session *discordgo.Session) {
	w.subjects = &watchdog.SubjectStore{}
	w.appeals = &watchdog.AppealStore{}
	w.engine = watchdog.NewEngine(watchdog.NewSessionMembership(session), w.appeals)
	w.scanner = watchdog.NewScanner(w.engine, w.subjects, watchdogScanDelay)

	// without redis the policy store falls back to plain mongodb reads
	if cache.HasRedisClient() {
		w.policies = watchdog.NewPolicyStore(cache.GetRedisCacheCodec())
	} else {
		w.policies = watchdog.NewPolicyStore(nil)
	}
}

func (w *Watchdog) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	args := strings.Fields(content)

	switch command {
	case "watchdog", "wd":
		if len(args) < 1 {
			w.status(msg)
			return
		}
		switch args[0] {
		case "setup":
			helpers.RequireGuildAdmin(msg, func() {
				w.setup(args[1:], msg)
			})
		case "status":
			w.status(msg)
		case "check":
			if len(args) < 2 {
				helpers.SendMessage(msg.ChannelID, "Please specify a user.")
				return
			}
			w.check(args[1], msg)
		case "stats":
			w.stats(msg)
		case "scan":
			helpers.RequireGuildAdmin(msg, func() {
				w.scan(msg, session)
			})
		default:
			helpers.SendMessage(msg.ChannelID, "Unknown subcommand. Try `setup`, `status`, `check`, `stats` or `scan`.")
		}
	case "flag":
		helpers.RequireBotAdmin(msg, func() {
			w.flag(args, content, msg)
		})
	case "appeal":
		if len(args) >= 1 && args[0] == "file" {
			w.fileAppeal(strings.Join(args[1:], " "), msg)
			return
		}
		helpers.RequireBotAdmin(msg, func() {
			w.appeal(args, msg)
		})
	}
}

func (w *Watchdog) setup(args []string, msg *discordgo.Message) {
	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)

	policy, err := w.policies.Get(channel.GuildID)
	helpers.Relax(err)
	policy.GuildID = channel.GuildID
	policy.Enabled = true

	// watchdog setup <log channel> [restricted role] [action]
	if len(args) >= 1 {
		policy.LogChannelID = strings.Trim(args[0], "<#>")
	}
	if len(args) >= 2 {
		policy.RoleID = strings.Trim(args[1], "<@&>")
	}
	if len(args) >= 3 {
		action := models.ParseWatchdogAction(strings.ToUpper(args[2]))
		if action == models.WatchdogActionUnknown {
			helpers.SendMessage(msg.ChannelID, "Unknown action. Valid actions: `WARN`, `KICK`, `BAN`, `ROLE`.")
			return
		}
		policy.ActionOnFlagged = action
		policy.ActionOnPerm = action
		policy.ActionOnAuto = action
	}

	err = w.policies.Set(policy)
	helpers.Relax(err)

	helpers.SendMessage(msg.ChannelID, "✅ Watchdog is set up on this server.")
}

func (w *Watchdog) status(msg *discordgo.Message) {
	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)

	policy, err := w.policies.Get(channel.GuildID)
	helpers.Relax(err)

	enabled := "❌ disabled"
	if policy.Enabled {
		enabled = "✅ enabled"
	}
	logChannel := "not set"
	if policy.LogChannelID != "" {
		logChannel = "<#" + policy.LogChannelID + ">"
	}
	role := "not set"
	if policy.RoleID != "" {
		role = "<@&" + policy.RoleID + ">"
	}

	helpers.SendEmbed(msg.ChannelID, &discordgo.MessageEmbed{
		Title: "🐕 Watchdog Status",
		Color: 0x5865F2,
		Description: strings.Join([]string{
			"**Watchdog:** " + enabled,
			"**Log Channel:** " + logChannel,
			"**Restricted Role:** " + role,
			"**Action on Flagged:** `" + string(policy.ActionOnFlagged) + "`",
			"**Action on Permanent Flags:** `" + string(policy.ActionOnPerm) + "`",
			"**Action on Auto Flags:** `" + string(policy.ActionOnAuto) + "`",
		}, "\n"),
	})
}

func (w *Watchdog) check(mention string, msg *discordgo.Message) {
	targetUser, err := helpers.GetUserFromMention(mention)
	if err != nil || targetUser.ID == "" {
		helpers.SendMessage(msg.ChannelID, "I could not find that user.")
		return
	}

	subject, err := w.subjects.Subject(targetUser.ID)
	helpers.Relax(err)

	if subject == nil || !subject.Tracked() {
		helpers.SendMessage(msg.ChannelID, fmt.Sprintf("✅ `%s` is not flagged.", targetUser.Username))
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: "🚨 Flagged User",
		Color: 0xE74C3C,
		Description: strings.Join([]string{
			fmt.Sprintf("**User:** %s (`%s`)", targetUser.Username, targetUser.ID),
			"**Status:** `" + string(subject.Status) + "`",
			"**Reason:** " + subject.Reason,
			"**Flagged:** " + humanize.Time(subject.CreatedAt),
		}, "\n"),
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: subject.LastAvatar},
	}

	if len(subject.FoundAt) > 0 {
		lines := make([]string, 0, len(subject.FoundAt))
		for _, foundAt := range subject.FoundAt {
			lines = append(lines, fmt.Sprintf("%s at %s (`%s`)", foundAt.Type, foundAt.GuildName, foundAt.GuildID))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Found At", Value: strings.Join(lines, "\n"),
		})
	}

	helpers.SendEmbed(msg.ChannelID, embed)
}

func (w *Watchdog) stats(msg *discordgo.Message) {
	flagged, err := w.subjects.CountByStatus(models.WatchdogStatusFlagged)
	helpers.Relax(err)
	permFlagged, err := w.subjects.CountByStatus(models.WatchdogStatusPermFlagged)
	helpers.Relax(err)
	autoFlagged, err := w.subjects.CountByStatus(models.WatchdogStatusAutoFlagged)
	helpers.Relax(err)
	appealed, err := w.subjects.CountByStatus(models.WatchdogStatusAppealed)
	helpers.Relax(err)
	pendingAppeals, err := w.appeals.Count(models.AppealStatusPending)
	helpers.Relax(err)

	helpers.SendEmbed(msg.ChannelID, &discordgo.MessageEmbed{
		Title: "📊 Watchdog Stats",
		Color: 0x5865F2,
		Description: strings.Join([]string{
			fmt.Sprintf("**Flagged:** `%s`", humanize.Comma(int64(flagged))),
			fmt.Sprintf("**Permanent Flags:** `%s`", humanize.Comma(int64(permFlagged))),
			fmt.Sprintf("**Auto Flags:** `%s`", humanize.Comma(int64(autoFlagged))),
			fmt.Sprintf("**Appealed:** `%s`", humanize.Comma(int64(appealed))),
			fmt.Sprintf("**Pending Appeals:** `%s`", humanize.Comma(int64(pendingAppeals))),
		}, "\n"),
	})
}

// flag add <user> <reason…> | add-multiple <ids…> <reason> | update
// <user> <status> <reason…> | remove <user> | info <user>
func (w *Watchdog) flag(args []string, content string, msg *discordgo.Message) {
	if len(args) < 2 {
		helpers.SendMessage(msg.ChannelID, "Usage: `flag add|add-multiple|update|remove|info …`")
		return
	}

	switch args[0] {
	case "add":
		targetUser, err := helpers.GetUserFromMention(args[1])
		if err != nil || targetUser.ID == "" {
			helpers.SendMessage(msg.ChannelID, "I could not find that user.")
			return
		}

		reason := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(content), strings.Join(args[:2], " ")))
		if reason == "" {
			reason = "No reason provided"
		}

		err = w.subjects.Upsert(models.WatchdogUserEntry{
			UserID:       targetUser.ID,
			LastUsername: targetUser.Username,
			LastAvatar:   helpers.GetAvatarUrl(targetUser),
			Status:       models.WatchdogStatusFlagged,
			Reason:       reason,
		})
		helpers.Relax(err)

		helpers.SendMessage(msg.ChannelID, fmt.Sprintf("🚩 Flagged `%s`.", targetUser.Username))
	case "add-multiple":
		userIDs := helpers.ParseUserIDs(strings.Join(args[1:], " "))
		if len(userIDs) == 0 {
			helpers.SendMessage(msg.ChannelID, "Please specify at least one user ID.")
			return
		}

		flagged := 0
		for _, userID := range userIDs {
			err := w.subjects.Upsert(models.WatchdogUserEntry{
				UserID: userID,
				Status: models.WatchdogStatusFlagged,
				Reason: "Bulk flagged",
			})
			if err != nil {
				helpers.RelaxLog(err)
				continue
			}
			flagged++
		}

		helpers.SendMessage(msg.ChannelID, fmt.Sprintf("🚩 Flagged %d user(s).", flagged))
	case "update":
		if len(args) < 3 {
			helpers.SendMessage(msg.ChannelID, "Usage: `flag update <user> <status> [reason]`")
			return
		}

		targetUser, err := helpers.GetUserFromMention(args[1])
		if err != nil || targetUser.ID == "" {
			helpers.SendMessage(msg.ChannelID, "I could not find that user.")
			return
		}

		status := models.WatchdogStatus(strings.ToUpper(args[2]))
		switch status {
		case models.WatchdogStatusFlagged, models.WatchdogStatusPermFlagged,
			models.WatchdogStatusAutoFlagged, models.WatchdogStatusAppealed:
		default:
			helpers.SendMessage(msg.ChannelID, "Valid statuses: `FLAGGED`, `PERM_FLAGGED`, `AUTO_FLAGGED`, `APPEALED`.")
			return
		}

		subject, err := w.subjects.Subject(targetUser.ID)
		helpers.Relax(err)
		if subject == nil {
			helpers.SendMessage(msg.ChannelID, "That user is not in the registry.")
			return
		}

		subject.Status = status
		if len(args) >= 4 {
			subject.Reason = strings.Join(args[3:], " ")
		}
		err = w.subjects.Update(*subject)
		helpers.Relax(err)

		helpers.SendMessage(msg.ChannelID, fmt.Sprintf("✏ Updated `%s` to `%s`.", targetUser.Username, status))
	case "remove":
		targetUser, err := helpers.GetUserFromMention(args[1])
		if err != nil || targetUser.ID == "" {
			// orphaned records whose user no longer resolves can be
			// removed by case id instead
			if id := helpers.HumanToMdbId(args[1]); id.Valid() {
				if !helpers.ConfirmEmbed(msg.ChannelID, msg.Author, fmt.Sprintf(
					"Remove case `%s` from the registry?", args[1],
				), "✅", "🚫", watchdogConfirmTimeout) {
					return
				}

				err = w.subjects.DeleteByID(id)
				helpers.Relax(err)

				helpers.SendMessage(msg.ChannelID, fmt.Sprintf("🗑 Removed case `%s` from the registry.", args[1]))
				return
			}

			helpers.SendMessage(msg.ChannelID, "I could not find that user.")
			return
		}

		if !helpers.ConfirmEmbed(msg.ChannelID, msg.Author, fmt.Sprintf(
			"Remove `%s` from the registry? This also deletes their appeals.", targetUser.Username,
		), "✅", "🚫", watchdogConfirmTimeout) {
			return
		}

		err = w.subjects.Delete(targetUser.ID)
		helpers.Relax(err)

		helpers.SendMessage(msg.ChannelID, fmt.Sprintf("🗑 Removed `%s` from the registry.", targetUser.Username))
	case "info":
		w.check(args[1], msg)
	default:
		helpers.SendMessage(msg.ChannelID, "Usage: `flag add|add-multiple|update|remove|info …`")
	}
}

// fileAppeal lets a flagged user open an appeal. One pending appeal
// per user, filing again while one is open is rejected.
func (w *Watchdog) fileAppeal(reason string, msg *discordgo.Message) {
	subject, err := w.subjects.Subject(msg.Author.ID)
	helpers.Relax(err)
	if subject == nil || !subject.Tracked() {
		helpers.SendMessage(msg.ChannelID, "You are not flagged, there is nothing to appeal.")
		return
	}

	pending, err := w.appeals.PendingAppeal(msg.Author.ID)
	helpers.Relax(err)
	if pending != nil {
		helpers.SendMessage(msg.ChannelID, "You already have a pending appeal. Please wait for a decision.")
		return
	}

	if strings.TrimSpace(reason) == "" {
		helpers.SendMessage(msg.ChannelID, "Usage: `appeal file <reason>`")
		return
	}

	err = w.appeals.Create(models.AppealEntry{
		UserID: msg.Author.ID,
		Reason: strings.TrimSpace(reason),
	})
	helpers.Relax(err)

	helpers.SendMessage(msg.ChannelID, "📨 Your appeal has been filed. A moderator will review it.")
}

// appeal approve <user> [response…] | deny <user> [response…] |
// info <user>
func (w *Watchdog) appeal(args []string, msg *discordgo.Message) {
	if len(args) < 2 {
		helpers.SendMessage(msg.ChannelID, "Usage: `appeal approve|deny|info <user> [response]`")
		return
	}

	targetUser, err := helpers.GetUserFromMention(args[1])
	if err != nil || targetUser.ID == "" {
		helpers.SendMessage(msg.ChannelID, "I could not find that user.")
		return
	}

	switch args[0] {
	case "approve", "deny":
		pending, err := w.appeals.PendingAppeal(targetUser.ID)
		helpers.Relax(err)
		if pending == nil {
			helpers.SendMessage(msg.ChannelID, "That user has no pending appeal.")
			return
		}

		response := strings.Join(args[2:], " ")

		if args[0] == "approve" {
			err = w.appeals.Resolve(pending.ID, models.AppealStatusApproved, msg.Author.ID, response)
			helpers.Relax(err)

			// the subject status is the canonical enforcement gate
			err = w.subjects.SetStatus(targetUser.ID, models.WatchdogStatusAppealed)
			helpers.Relax(err)

			helpers.SendMessage(msg.ChannelID, fmt.Sprintf("✅ Approved the appeal of `%s`.", targetUser.Username))
			return
		}

		err = w.appeals.Resolve(pending.ID, models.AppealStatusDenied, msg.Author.ID, response)
		helpers.Relax(err)

		helpers.SendMessage(msg.ChannelID, fmt.Sprintf("❌ Denied the appeal of `%s`.", targetUser.Username))
	case "info":
		appeal, err := w.appeals.LatestAppeal(targetUser.ID)
		helpers.Relax(err)
		if appeal == nil {
			helpers.SendMessage(msg.ChannelID, "That user never appealed.")
			return
		}

		helpers.SendEmbed(msg.ChannelID, &discordgo.MessageEmbed{
			Title: "📜 Latest Appeal",
			Color: 0x5865F2,
			Description: strings.Join([]string{
				fmt.Sprintf("**User:** %s (`%s`)", targetUser.Username, targetUser.ID),
				"**Case ID:** `" + helpers.MdbIdToHuman(appeal.ID) + "`",
				"**Status:** `" + string(appeal.Status) + "`",
				"**Reason:** " + appeal.Reason,
				"**Filed:** " + humanize.Time(appeal.CreatedAt),
			}, "\n"),
		})
	default:
		helpers.SendMessage(msg.ChannelID, "Usage: `appeal approve|deny|info <user> [response]`")
	}
}

// scan walks the guild member list, lists every tracked member in
// pages and fires the engine for all of them after confirmation
func (w *Watchdog) scan(msg *discordgo.Message, session *discordgo.Session) {
	session.ChannelTyping(msg.ChannelID)

	channel, err := helpers.GetChannel(msg.ChannelID)
	helpers.Relax(err)
	guild, err := helpers.GetGuild(channel.GuildID)
	helpers.Relax(err)

	policy, err := w.policies.Get(guild.ID)
	helpers.Relax(err)
	if !policy.Enabled {
		helpers.SendMessage(msg.ChannelID, "Watchdog is disabled on this server. Run `watchdog setup` first.")
		return
	}

	candidates := w.scanner.Candidates(guild, policy, guild.Members)
	if len(candidates) == 0 {
		helpers.SendMessage(msg.ChannelID, "✅ No flagged users found on this server.")
		return
	}

	for pageNumber, page := range watchdog.Pages(candidates) {
		lines := make([]string, 0, len(page))
		for _, candidate := range page {
			lines = append(lines, fmt.Sprintf("`%s` (`%s`) → `%s`",
				candidate.Member.Username, candidate.Member.UserID, candidate.Action))
		}

		helpers.SendEmbed(msg.ChannelID, &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("🔍 Scan Results (page %d)", pageNumber+1),
			Color:       0xE67E22,
			Description: strings.Join(lines, "\n"),
		})
	}

	if !helpers.ConfirmEmbed(msg.ChannelID, msg.Author, fmt.Sprintf(
		"Apply the configured actions to %d member(s)?", len(candidates),
	), "✅", "🚫", watchdogConfirmTimeout) {
		helpers.SendMessage(msg.ChannelID, "Scan cancelled.")
		return
	}

	applied := w.scanner.Apply(policy, candidates)
	helpers.SendMessage(msg.ChannelID, fmt.Sprintf("✅ Scan finished, %d action(s) applied.", applied))
}

func (w *Watchdog) OnMessage(content string, msg *discordgo.Message, session *discordgo.Session) {
}

// OnGuildMemberAdd enforces against tracked members the moment they
// join a protected guild
func (w *Watchdog) OnGuildMemberAdd(member *discordgo.Member, session *discordgo.Session) {
	if member.User == nil || member.User.Bot {
		return
	}

	subject, err := w.subjects.Subject(member.User.ID)
	if err != nil {
		helpers.RelaxLog(err)
		return
	}
	if subject == nil || !subject.Tracked() {
		return
	}

	policy, err := w.policies.Get(member.GuildID)
	if err != nil {
		helpers.RelaxLog(err)
		return
	}
	if !policy.Enabled {
		return
	}

	guildName := member.GuildID
	if guild, err := helpers.GetGuild(member.GuildID); err == nil {
		guildName = guild.Name
	}

	w.engine.Enforce(*subject, policy, watchdog.Member{
		GuildID:   member.GuildID,
		GuildName: guildName,
		UserID:    member.User.ID,
		Username:  member.User.Username,
		AvatarURL: helpers.GetAvatarUrl(member.User),
	})
}

func (w *Watchdog) OnGuildMemberRemove(member *discordgo.Member, session *discordgo.Session) {
}

func (w *Watchdog) OnReactionAdd(reaction *discordgo.MessageReactionAdd, session *discordgo.Session) {
}
