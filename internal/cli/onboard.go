package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/famlink/internal/common"
	"github.com/dmitrijs2005/famlink/internal/langx"
	"github.com/dmitrijs2005/famlink/internal/models"
	"github.com/dmitrijs2005/famlink/internal/services"
)

func (a *App) isOnboarded(ctx context.Context) bool {
	done, err := a.store.IsOnboardingCompleted(ctx)
	if err != nil {
		a.log.Error(ctx, "error reading settings", "error", err)
		return false
	}
	return done
}

// Onboard asks for the user's name, signature and language pair, stores an
// optional API key and seeds starter phrases for the pair.
func (a *App) Onboard(ctx context.Context, _ []string) error {
	cur, err := a.store.GetUserSettings(ctx)
	if err != nil {
		return err
	}

	printlnFn("Let's set up famlink.")

	name, err := GetTextOrDefault(a.reader, "- Your name", cur.UserName, a.out)
	if err != nil {
		return err
	}
	signature, err := GetTextOrDefault(a.reader, "- Signature added to your messages (optional)", cur.Signature, a.out)
	if err != nil {
		return err
	}
	source, err := GetTextOrDefault(a.reader, "- Language you write in", cur.SourceLang, a.out)
	if err != nil {
		return err
	}
	target, err := GetTextOrDefault(a.reader, "- Language of your family", cur.TargetLang, a.out)
	if err != nil {
		return err
	}

	source, target = langx.Normalize(source), langx.Normalize(target)
	if source == "" || target == "" {
		return fmt.Errorf("%w: both languages are required", common.ErrInvalidInput)
	}

	if _, err := a.store.UpdateUserSettings(ctx, models.Doc{
		"userName":   strings.TrimSpace(name),
		"signature":  strings.TrimSpace(signature),
		"sourceLang": source,
		"targetLang": target,
	}); err != nil {
		return err
	}

	if !cur.HasAPIKey() {
		if err := a.SetKey(ctx, nil); err != nil {
			printlnFn("API key not saved:", describeError(err))
		}
	}

	n, err := a.seeder.SetupInitialData(ctx, source, target)
	if err != nil {
		return err
	}
	if n > 0 {
		printlnFn(fmt.Sprintf("Added %d starter categories.", n))
	}

	if _, err := a.store.SetOnboardingCompleted(ctx, true); err != nil {
		return err
	}
	printlnFn("All set. Type 'help' to see what you can do.")
	return nil
}

// Settings prints the stored settings with the API key masked.
func (a *App) Settings(ctx context.Context, _ []string) error {
	s, err := a.store.GetUserSettings(ctx)
	if err != nil {
		return err
	}
	key := "(none)"
	if s.HasAPIKey() {
		key = fmt.Sprintf("%s (%s)", services.MaskKey(*s.APIKey), services.TierOf(*s.APIKey))
	}
	printlnFn(fmt.Sprintf("name:       %s", s.UserName))
	printlnFn(fmt.Sprintf("signature:  %s", s.Signature))
	printlnFn(fmt.Sprintf("languages:  %s -> %s", s.SourceLang, s.TargetLang))
	printlnFn(fmt.Sprintf("app locale: %s", s.AppLanguage))
	printlnFn(fmt.Sprintf("api key:    %s", key))
	printlnFn(fmt.Sprintf("mode:       %s", a.currentMode()))
	return nil
}

// SetKey reads a key without echo. When the relay is reachable the key is
// checked against the usage endpoint first; a rejected key is not stored.
// An empty answer clears the key.
func (a *App) SetKey(ctx context.Context, _ []string) error {
	raw, err := GetSecret(a.out, "- Translation API key (empty to clear)")
	if err != nil {
		return err
	}
	key := strings.TrimSpace(string(raw))
	common.WipeByteArray(raw)

	if key != "" {
		res := a.translator.GetUsage(ctx, key)
		switch {
		case res.Error == nil:
			if _, err := a.store.UpdateUsage(ctx, res.Usage.CharacterCount, res.Usage.CharacterLimit); err != nil {
				return err
			}
			printlnFn("Key accepted:", res.Usage.Display())
		case common.IsProviderKind(res.Error, common.InvalidCredential):
			return res.Error
		default:
			a.log.Warn(ctx, "key not verified", "error", res.Error)
			printlnFn("Could not verify the key now, saving it anyway.")
		}
	}

	if _, err := a.store.SetAPIKey(ctx, key); err != nil {
		return err
	}
	a.translator.SetAPIKey(key)
	if key == "" {
		printlnFn("API key cleared.")
	}
	return nil
}

// Usage refreshes the quota from the relay, or shows the stored snapshot
// when that fails.
func (a *App) Usage(ctx context.Context, _ []string) error {
	report, err := a.translator.RefreshUsage(ctx)
	if err != nil {
		u, serr := a.store.GetUsage(ctx)
		if serr != nil {
			return serr
		}
		printlnFn("Could not refresh usage:", describeError(err))
		report = &services.UsageReport{CharacterCount: u.CharacterCount, CharacterLimit: u.CharacterLimit}
		printlnFn("Last known usage:")
	}
	printlnFn(report.Display())
	if report.IsNearLimit() {
		printlnFn(fmt.Sprintf("Warning: more than %d%% of the monthly quota is used.", services.NearLimitPercent))
	}
	return nil
}
