package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/famlink/internal/services"
)

// Profiles lists family members with their nicknames.
func (a *App) Profiles(ctx context.Context, _ []string) error {
	list, err := a.profiles.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		printlnFn("No family members yet, add one with 'addprofile'.")
		return nil
	}
	for _, p := range list {
		line := fmt.Sprintf("%s  %s / %s", p.ID, p.OriginalName, p.TranslatedName)
		if p.Birthdate != "" {
			line += "  born " + p.Birthdate
		}
		if p.Timezone != "" {
			line += "  " + p.Timezone
		}
		printlnFn(line)
		for _, n := range p.Nicknames {
			printlnFn(fmt.Sprintf("    %s  %s (%s / %s)", n.ID, n.Display, n.SourceValue, n.TargetValue))
		}
	}
	return nil
}

// AddProfile asks for a family member's details. The translated name
// defaults to a provider translation when one is available.
func (a *App) AddProfile(ctx context.Context, _ []string) error {
	s, err := a.store.GetUserSettings(ctx)
	if err != nil {
		return err
	}

	name, err := GetSimpleText(a.reader, "- Name", a.out)
	if err != nil {
		return err
	}
	translated, err := GetTextOrDefault(a.reader, "- Name in "+s.TargetLang, a.suggest(ctx, name, s.SourceLang, s.TargetLang), a.out)
	if err != nil {
		return err
	}
	birthdate, err := GetSimpleText(a.reader, "- Birthdate YYYY-MM-DD (optional)", a.out)
	if err != nil {
		return err
	}
	tz, err := GetSimpleText(a.reader, "- Time zone, e.g. Europe/Paris (optional)", a.out)
	if err != nil {
		return err
	}

	p, err := a.profiles.Create(ctx, services.ProfileInput{
		Name:           name,
		TranslatedName: translated,
		Birthdate:      birthdate,
		Timezone:       tz,
		Language:       s.TargetLang,
	})
	if err != nil {
		return err
	}
	printlnFn("Added", p.OriginalName, "with id", p.ID)
	return nil
}

func (a *App) DeleteProfile(ctx context.Context, args []string) error {
	id := argOrEmpty(args, 0)
	if id == "" {
		return errUsage("delprofile <id>")
	}
	if err := a.profiles.Delete(ctx, id); err != nil {
		return err
	}
	printlnFn("Deleted", id)
	return nil
}

func (a *App) AddNickname(ctx context.Context, args []string) error {
	profileID := argOrEmpty(args, 0)
	if profileID == "" {
		return errUsage("addnick <profile-id>")
	}
	if _, err := a.profiles.Get(ctx, profileID); err != nil {
		return err
	}
	s, err := a.store.GetUserSettings(ctx)
	if err != nil {
		return err
	}

	display, err := GetSimpleText(a.reader, "- Nickname", a.out)
	if err != nil {
		return err
	}
	target, err := GetTextOrDefault(a.reader, "- Nickname in "+s.TargetLang, a.suggest(ctx, display, s.SourceLang, s.TargetLang), a.out)
	if err != nil {
		return err
	}

	n, err := a.profiles.AddNickname(ctx, profileID, services.NicknameInput{Display: display, TargetValue: target})
	if err != nil {
		return err
	}
	printlnFn("Added nickname", n.Display, "with id", n.ID)
	return nil
}

func (a *App) DeleteNickname(ctx context.Context, args []string) error {
	profileID, nickID := argOrEmpty(args, 0), argOrEmpty(args, 1)
	if profileID == "" || nickID == "" {
		return errUsage("delnick <profile-id> <nickname-id>")
	}
	return a.profiles.DeleteNickname(ctx, profileID, nickID)
}

// suggest returns a translation of text, or "" when none is available.
func (a *App) suggest(ctx context.Context, text, sourceLang, targetLang string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	res := a.translator.TryTranslate(ctx, text, sourceLang, targetLang)
	if res.Error != nil {
		a.log.Debug(ctx, "no translation suggestion", "error", res.Error)
		return ""
	}
	return res.Text
}
