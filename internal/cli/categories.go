package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/famlink/internal/common"
	"github.com/dmitrijs2005/famlink/internal/models"
	"github.com/dmitrijs2005/famlink/internal/services"
)

// Categories lists categories and their phrases, optionally only those of
// one language.
func (a *App) Categories(ctx context.Context, args []string) error {
	var (
		list []*models.Category
		err  error
	)
	if lang := argOrEmpty(args, 0); lang != "" {
		list, err = a.categories.ListByLanguage(ctx, lang)
	} else {
		list, err = a.categories.List(ctx)
	}
	if err != nil {
		return err
	}
	if len(list) == 0 {
		printlnFn("No categories.")
		return nil
	}
	for _, c := range list {
		printlnFn(fmt.Sprintf("[%d] %s  %s (%s)", c.Order, c.ID, c.Title, c.Language))
		for _, p := range c.Phrases {
			printlnFn(fmt.Sprintf("    %s  %s | %s", p.ID, p.SourceText, p.TargetText))
		}
	}
	return nil
}

func (a *App) AddCategory(ctx context.Context, _ []string) error {
	s, err := a.store.GetUserSettings(ctx)
	if err != nil {
		return err
	}
	title, err := GetSimpleText(a.reader, "- Category title", a.out)
	if err != nil {
		return err
	}
	c, err := a.categories.Create(ctx, title, s.SourceLang)
	if err != nil {
		return err
	}
	printlnFn("Added category", c.Title, "with id", c.ID)
	return nil
}

func (a *App) DeleteCategory(ctx context.Context, args []string) error {
	id := argOrEmpty(args, 0)
	if id == "" {
		return errUsage("delcat <id>")
	}
	return a.categories.Delete(ctx, id)
}

// AddPhrase asks for the phrase in the source language and offers a
// translation for the target side. {name} is kept as a placeholder.
func (a *App) AddPhrase(ctx context.Context, args []string) error {
	categoryID := argOrEmpty(args, 0)
	if categoryID == "" {
		return errUsage("addphrase <category-id>")
	}
	if _, err := a.categories.Get(ctx, categoryID); err != nil {
		return err
	}
	s, err := a.store.GetUserSettings(ctx)
	if err != nil {
		return err
	}

	source, err := GetSimpleText(a.reader, "- Phrase (use {name} for the person)", a.out)
	if err != nil {
		return err
	}
	target, err := GetTextOrDefault(a.reader, "- Phrase in "+s.TargetLang, a.suggest(ctx, source, s.SourceLang, s.TargetLang), a.out)
	if err != nil {
		return err
	}

	p, err := a.categories.AddPhrase(ctx, categoryID, services.PhraseInput{SourceText: source, TargetText: target})
	if err != nil {
		return err
	}
	printlnFn("Added phrase with id", p.ID)
	return nil
}

func (a *App) DeletePhrase(ctx context.Context, args []string) error {
	categoryID, phraseID := argOrEmpty(args, 0), argOrEmpty(args, 1)
	if categoryID == "" || phraseID == "" {
		return errUsage("delphrase <category-id> <phrase-id>")
	}
	return a.categories.DeletePhrase(ctx, categoryID, phraseID)
}

// Translate translates the arguments, or a prompted line, from the source
// to the target language.
func (a *App) Translate(ctx context.Context, args []string) error {
	s, err := a.store.GetUserSettings(ctx)
	if err != nil {
		return err
	}
	text := strings.Join(args, " ")
	if text == "" {
		if text, err = GetSimpleText(a.reader, "- Text to translate", a.out); err != nil {
			return err
		}
	}
	if services.WouldExceedQuota(text, s.Usage) {
		printlnFn("Warning: this text may exceed the remaining quota.")
	}

	tr, err := a.translator.Translate(ctx, text, s.SourceLang, s.TargetLang)
	if err != nil {
		return err
	}
	printlnFn(tr.Text)
	a.log.Debug(ctx, "translated", "source", tr.Source, "chars", services.EstimateCost(text))
	return nil
}

// Say renders a phrase for a family member in both languages and appends
// the user's signature.
func (a *App) Say(ctx context.Context, args []string) error {
	phraseID, profileID := argOrEmpty(args, 0), argOrEmpty(args, 1)
	if phraseID == "" || profileID == "" {
		return errUsage("say <phrase-id> <profile-id>")
	}
	p, err := a.profiles.Get(ctx, profileID)
	if err != nil {
		return err
	}
	phrase, err := a.findPhrase(ctx, phraseID)
	if err != nil {
		return err
	}
	s, err := a.store.GetUserSettings(ctx)
	if err != nil {
		return err
	}

	target := services.RenderPhrase(phrase.TargetText, p.TranslatedName)
	if s.Signature != "" {
		target += "\n" + s.Signature
	}
	printlnFn(services.RenderPhrase(phrase.SourceText, p.OriginalName))
	printlnFn(target)
	return nil
}

func (a *App) findPhrase(ctx context.Context, id string) (*models.Phrase, error) {
	list, err := a.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range list {
		if p, i := c.Phrase(id); i >= 0 {
			return p, nil
		}
	}
	return nil, fmt.Errorf("phrase %s: %w", id, common.ErrNotFound)
}
