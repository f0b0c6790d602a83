package watchdog

import (
	"fmt"
	"strings"

	"github.com/Stachio-Dev/Stachio/cache"
	"github.com/Stachio-Dev/Stachio/models"
	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
)

// SubjectCounter aggregates subjects by status
type SubjectCounter interface {
	CountByStatus(status models.WatchdogStatus) (int, error)
}

// AppealCounter aggregates appeals, empty status counts everything
type AppealCounter interface {
	Count(status models.AppealStatus) (int, error)
}

// Reporter sends the weekly aggregate report. Read-only, no
// enforcement happens here.
type Reporter struct {
	Subjects   SubjectCounter
	Appeals    AppealCounter
	Membership Membership
	ChannelID  string
}

func (r *Reporter) Send() error {
	log := cache.GetLogger().WithField("module", "watchdog")

	totalFlagged, err := r.Subjects.CountByStatus(models.WatchdogStatusFlagged)
	if err != nil {
		return err
	}
	totalAutoFlagged, err := r.Subjects.CountByStatus(models.WatchdogStatusAutoFlagged)
	if err != nil {
		return err
	}
	totalPermFlagged, err := r.Subjects.CountByStatus(models.WatchdogStatusPermFlagged)
	if err != nil {
		return err
	}
	totalAppeals, err := r.Appeals.Count("")
	if err != nil {
		return err
	}
	approved, err := r.Appeals.Count(models.AppealStatusApproved)
	if err != nil {
		return err
	}
	denied, err := r.Appeals.Count(models.AppealStatusDenied)
	if err != nil {
		return err
	}
	pending, err := r.Appeals.Count(models.AppealStatusPending)
	if err != nil {
		return err
	}

	embed := &discordgo.MessageEmbed{
		Title: "📊 Weekly Watchdog Report",
		Color: 0x5865F2,
		Description: strings.Join([]string{
			"Here's a summary of flagged users and appeals for the past week. Stay safe and keep your community clean!",
			"",
			"**Flagged Users**",
			fmt.Sprintf("- Total Flagged: `%s`", humanize.Comma(int64(totalFlagged))),
			fmt.Sprintf("- Auto-Flagged: `%s`", humanize.Comma(int64(totalAutoFlagged))),
			fmt.Sprintf("- Permanent Flags: `%s`", humanize.Comma(int64(totalPermFlagged))),
			"",
			"**Appeals**",
			fmt.Sprintf("- Total Appeals: `%s`", humanize.Comma(int64(totalAppeals))),
			fmt.Sprintf("- Approved: `%d`", approved),
			fmt.Sprintf("- Denied: `%d`", denied),
			fmt.Sprintf("- Pending: `%d`", pending),
		}, "\n"),
		Footer: &discordgo.MessageEmbedFooter{Text: "Watchdog Weekly Report"},
	}

	err = r.Membership.SendEmbed(r.ChannelID, embed)
	if err != nil {
		return err
	}

	log.Info("weekly report sent")
	return nil
}
