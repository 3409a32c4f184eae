// Package forms builds the huh forms for each survey stage. Raw values stay
// in string-backed form models until a stage transition validates them; the
// session's response record is never touched by a half-finished form.
package forms

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"probeword/internal/config"
	"probeword/internal/constants"
	"probeword/internal/models"
	"probeword/internal/payout"
)

// ConsentFormModel backs the consent screen.
type ConsentFormModel struct {
	Confirmed bool
	Choice    models.ConsentChoice
}

// InstructionsFormModel backs the instructions screen.
type InstructionsFormModel struct {
	WeChatID string
}

// AnswersFormModel backs the self-report screen: one raw value per question
// in presentation order, prefilled with the session's random defaults.
type AnswersFormModel struct {
	Values []string
}

// PredictionFormModel backs the prediction screen.
type PredictionFormModel struct {
	Predictions []string
	Bands       []models.Band
}

func validateScale(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("enter a whole number between 0 and 100")
	}
	if v < 0 || v > 100 {
		return fmt.Errorf("value must be between 0 and 100")
	}
	return nil
}

// NewConsentForm creates the consent stage form.
func NewConsentForm(fm *ConsentFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Consent").
				Description("This study takes about 20 minutes. Your answers are recorded anonymously under a random participant id. You may stop at any time before submitting; nothing is stored until you submit."),
			huh.NewConfirm().
				Title("I have read the information above and agree to participate").
				Value(&fm.Confirmed),
			huh.NewSelect[models.ConsentChoice]().
				Title("Data sharing").
				Options(
					huh.NewOption("Do not share my data beyond this study", models.ConsentNoShare),
					huh.NewOption("Share de-identified data with other researchers", models.ConsentDeidentified),
					huh.NewOption("Share my data including my payment identifier", models.ConsentIdentifiable),
				).
				Value(&fm.Choice),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewInstructionsForm creates the instructions stage form.
func NewInstructionsForm(fm *InstructionsFormModel, cfg config.Config) *huh.Form {
	sched := payout.FromConfig(cfg)
	wechat := huh.NewInput().
		Title("WeChat ID").
		Description("Used for payment. Leave blank to be paid in cash.").
		Value(&fm.WeChatID)
	if cfg.RequireWeChatID {
		wechat = wechat.Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("a WeChat ID is required for payment")
			}
			return nil
		})
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome").
				Description(fmt.Sprintf(
					"You will rate a series of probability phrases twice.\n\n"+
						"Stage 1: your own interpretation of each phrase, 0-100.\n"+
						"Stage 2: predict the group's median answer and commit to an interval.\n\n"+
						"Payment: %.0f %s base fee plus a bonus for every interval that contains the group median.",
					sched.BaseFee, constants.Currency)),
			wechat,
		),
	).WithTheme(huh.ThemeDracula())
}

// NewAnswersFormModel prefills the self-report form with the session's random
// defaults in presentation order.
func NewAnswersFormModel(order []models.Question, defaults func(questionID int) int) *AnswersFormModel {
	fm := &AnswersFormModel{Values: make([]string, len(order))}
	for i, q := range order {
		fm.Values[i] = strconv.Itoa(defaults(q.ID))
	}
	return fm
}

// NewSelfReportForm creates the stage-1 form: one 0-100 input per question in
// the session's presentation order.
func NewSelfReportForm(fm *AnswersFormModel, order []models.Question) *huh.Form {
	fields := make([]huh.Field, 0, len(order)+1)
	fields = append(fields, huh.NewNote().
		Title("Stage 1: Your own interpretation").
		Description("For each phrase, enter the chance (0-100) you personally associate with it."))
	for i, q := range order {
		fields = append(fields, huh.NewInput().
			Title(q.Prompt).
			Value(&fm.Values[i]).
			Validate(validateScale))
	}
	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeDracula())
}

// NewPredictionFormModel prefills the prediction form. Bands start on narrow,
// matching the first radio option of the original instrument.
func NewPredictionFormModel(order []models.Question, defaults func(questionID int) int) *PredictionFormModel {
	fm := &PredictionFormModel{
		Predictions: make([]string, len(order)),
		Bands:       make([]models.Band, len(order)),
	}
	for i, q := range order {
		fm.Predictions[i] = strconv.Itoa(defaults(q.ID))
		fm.Bands[i] = models.BandNarrow
	}
	return fm
}

// NewPredictionForm creates the stage-2 form: one group per question holding
// the prediction input and the band choice. huh renders one group at a time,
// so each question gets its own page.
func NewPredictionForm(fm *PredictionFormModel, order []models.Question, cfg config.Config) *huh.Form {
	sched := payout.FromConfig(cfg)
	groups := make([]*huh.Group, 0, len(order)+1)
	groups = append(groups, huh.NewGroup(huh.NewNote().
		Title("Stage 2: Predict the group median").
		Description(fmt.Sprintf(
			"Now predict the group's median answer for each phrase and choose an interval width.\n\n%s\n%s",
			sched.BandLabel(models.BandNarrow, cfg.NarrowRadius),
			sched.BandLabel(models.BandWide, cfg.WideRadius)))))

	for i, q := range order {
		groups = append(groups, huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Q%d. %s", q.ID, q.Prompt)).
				Description("Predict the group median (0-100)").
				Value(&fm.Predictions[i]).
				Validate(validateScale),
			huh.NewSelect[models.Band]().
				Title("Interval width").
				Options(
					huh.NewOption(sched.BandLabel(models.BandNarrow, cfg.NarrowRadius), models.BandNarrow),
					huh.NewOption(sched.BandLabel(models.BandWide, cfg.WideRadius), models.BandWide),
				).
				Value(&fm.Bands[i]),
		))
	}
	return huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
}
