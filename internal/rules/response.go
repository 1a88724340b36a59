package rules

import (
	"math/rand/v2"

	"aurora-agent/internal/domain"
)

const (
	fallbackMessage    = "Take care of yourself."
	fallbackSuggestion = "Take a short pause and breathe slowly for a moment."
)

type responseCell struct {
	messages    [2]string
	suggestions []string
}

type responseTable map[domain.EmotionLabel]map[domain.RiskLevel]responseCell

// Selector picks a supportive message and coping suggestions for an emotion
// and risk level. The message is drawn uniformly from two candidates on every
// call; suggestions are fixed per cell.
type Selector struct {
	table responseTable
	intn  func(n int) int
}

// NewSelector returns a Selector over the built-in table. intn must return a
// value in [0, n); nil uses math/rand/v2.
func NewSelector(intn func(n int) int) *Selector {
	if intn == nil {
		intn = rand.IntN
	}
	return &Selector{table: responses, intn: intn}
}

var defaultSelector = NewSelector(nil)

// SelectResponse uses the process-wide Selector.
func SelectResponse(emotion domain.EmotionLabel, risk domain.RiskLevel) domain.ResponseBundle {
	return defaultSelector.Select(emotion, risk)
}

// Select looks up (emotion, risk). Unknown emotions use the neutral row, unknown
// tiers use the low column, and a complete miss yields a generic answer.
func (s *Selector) Select(emotion domain.EmotionLabel, risk domain.RiskLevel) domain.ResponseBundle {
	row, ok := s.table[emotion]
	if !ok {
		row, ok = s.table[domain.EmotionNeutral]
	}
	if !ok {
		return genericResponse(risk)
	}
	cell, ok := row[risk]
	if !ok {
		cell, ok = row[domain.RiskLow]
	}
	if !ok {
		return genericResponse(risk)
	}
	return domain.ResponseBundle{
		RiskLevel:   risk,
		Message:     cell.messages[s.intn(len(cell.messages))],
		Suggestions: append([]string(nil), cell.suggestions...),
	}
}

// Candidates returns the two possible messages for (emotion, risk) after
// fallback resolution, or nil on a complete miss.
func (s *Selector) Candidates(emotion domain.EmotionLabel, risk domain.RiskLevel) []string {
	row, ok := s.table[emotion]
	if !ok {
		row, ok = s.table[domain.EmotionNeutral]
	}
	if !ok {
		return nil
	}
	cell, ok := row[risk]
	if !ok {
		cell, ok = row[domain.RiskLow]
	}
	if !ok {
		return nil
	}
	return cell.messages[:]
}

func genericResponse(risk domain.RiskLevel) domain.ResponseBundle {
	return domain.ResponseBundle{
		RiskLevel:   risk,
		Message:     fallbackMessage,
		Suggestions: []string{fallbackSuggestion},
	}
}

var responses = responseTable{
	domain.EmotionSadness: {
		domain.RiskLow: {
			messages: [2]string{
				"It sounds like you're feeling a little low today, and that's completely okay. Maybe take a small break and do one gentle thing just for yourself.",
				"I notice a touch of sadness in your words. Remember, it's natural to have ups and downs. Be kind to yourself today.",
			},
			suggestions: []string{
				"Take a gentle 5-minute break",
				"Listen to calming music or sounds",
			},
		},
		domain.RiskMedium: {
			messages: [2]string{
				"You seem really weighed down right now. Your feelings are valid, and you don't have to pretend you're okay. Try talking to someone you trust or writing down what's hurting you.",
				"It sounds like you're carrying something heavy today. You deserve support and care. Consider reaching out to someone close or doing something small that brings you comfort.",
			},
			suggestions: []string{
				"Try a 3-minute breathing exercise",
				"Do one small comforting thing (music, warm drink, short walk)",
				"Write down three things that went okay today",
			},
		},
		domain.RiskHigh: {
			messages: [2]string{
				"It sounds like you're going through something very heavy. You don't deserve to carry this alone. If you can, reach out to a close friend, family member, or a professional for support.",
				"What you're feeling right now sounds overwhelming, and I'm really sorry you're experiencing this. Please know you deserve help. Consider talking to someone you trust or a mental health professional.",
			},
			suggestions: []string{
				"Reach out to someone you trust and tell them how you feel",
				"Write down what's hurting you and what you wish could change",
				"View support resources and helplines",
			},
		},
	},
	domain.EmotionJoy: {
		domain.RiskLow: {
			messages: [2]string{
				"There's a hint of lightness in what you shared. Notice the small good moments today and let yourself enjoy them.",
				"I can sense a bit of positivity in your words. Take a moment to appreciate what's bringing you even a little happiness.",
			},
			suggestions: []string{
				"Note one small thing that went okay today",
				"Keep noticing the little positives",
			},
		},
		domain.RiskMedium: {
			messages: [2]string{
				"You sound genuinely positive, and that's beautiful to see. Take a moment to celebrate what's going well for you.",
				"There's real joy coming through in what you shared! Soak in these good feelings and remember this moment.",
			},
			suggestions: []string{
				"Take a moment to celebrate what's going well",
				"Do something creative to express this positive energy",
			},
		},
		domain.RiskHigh: {
			messages: [2]string{
				"You sound really joyful right now! Hold onto this feeling and maybe share it with someone you care about.",
				"What wonderful energy! It's clear something is bringing you real happiness. Enjoy this moment fully, you've earned it.",
			},
			suggestions: []string{
				"Write down what made you happy so you can remember it later",
				"Share your joy with someone you care about",
			},
		},
	},
	domain.EmotionAnger: {
		domain.RiskLow: {
			messages: [2]string{
				"I sense a bit of frustration in your words. That's completely understandable. Sometimes naming what bothers us can help release some of that tension.",
				"You seem a little irritated, and that's okay. Give yourself permission to feel it, then take a breath and see what you need.",
			},
			suggestions: []string{
				"Name what's bothering you out loud",
				"Take three deep breaths",
			},
		},
		domain.RiskMedium: {
			messages: [2]string{
				"It sounds like something has really upset you, and your anger is valid. Try taking a few deep breaths or stepping away from the situation for a moment.",
				"You're clearly dealing with real frustration right now. It's okay to feel angry. Just remember to take care of yourself while you process this.",
			},
			suggestions: []string{
				"Practice box breathing (4 counts in, hold, out, hold)",
				"Step away from the situation for a few minutes",
			},
		},
		domain.RiskHigh: {
			messages: [2]string{
				"You sound very angry, and that's a powerful feeling. Before you act, try to pause and breathe. Consider talking to someone or channeling this energy into something physical like a walk.",
				"What you're feeling sounds intense and overwhelming. Your anger is valid. Please take a moment to ground yourself before making any big decisions. Reach out if you need support.",
			},
			suggestions: []string{
				"Take a 5-minute walk to cool down",
				"Write down what's making you angry without filtering",
				"Do something physical like stretching or exercise",
			},
		},
	},
	domain.EmotionFear: {
		domain.RiskLow: {
			messages: [2]string{
				"I notice a bit of worry or nervousness in your words. That's normal. Try grounding yourself: name five things you can see right now.",
				"You seem a little uneasy, and that's okay. Sometimes just acknowledging fear can make it feel more manageable.",
			},
			suggestions: []string{
				"Name five things you can see right now",
				"Take a few slow, calming breaths",
			},
		},
		domain.RiskMedium: {
			messages: [2]string{
				"It sounds like anxiety or fear is weighing on you. You're not alone in feeling this way. Try a grounding exercise, take slow breaths, or talk to someone you trust.",
				"You're clearly feeling anxious, and that's really hard. Remember to breathe slowly and remind yourself that this feeling will pass.",
			},
			suggestions: []string{
				"Try a grounding exercise",
				"Take slow, deep breaths for 2 minutes",
				"Write down what you're worried about",
			},
		},
		domain.RiskHigh: {
			messages: [2]string{
				"You sound very scared or anxious right now, and I'm really sorry you're experiencing this. Please reach out to someone you trust or call a helpline if you feel unsafe. You don't have to face this alone.",
				"What you're feeling sounds overwhelming. Fear this intense is hard to carry. Please talk to someone: a friend, family member, or professional. You deserve support right now.",
			},
			suggestions: []string{
				"Use the 5-4-3-2-1 grounding technique",
				"Call or text someone you trust",
				"View support resources and helplines",
			},
		},
	},
	domain.EmotionNeutral: {
		domain.RiskLow: {
			messages: [2]string{
				"You seem calm and reflective right now. Keep checking in with yourself and notice what you need.",
				"Your words feel balanced and steady. It's great that you're taking time to reflect.",
			},
			suggestions: []string{
				"Continue checking in with yourself",
				"Try a mindfulness exercise",
			},
		},
		domain.RiskMedium: {
			messages: [2]string{
				"You sound thoughtful and centered. This is a good place to be, keep listening to yourself.",
				"There's a nice evenness to what you've shared. Stay present with yourself.",
			},
			suggestions: []string{
				"Journal about what's on your mind",
				"Take a reflective walk",
			},
		},
		domain.RiskHigh: {
			messages: [2]string{
				"You sound very grounded and at peace. This clarity is valuable, hold onto it.",
				"What a calm and centered space you're in. Enjoy this equilibrium.",
			},
			suggestions: []string{
				"Enjoy this calm moment",
				"Practice gratitude reflection",
			},
		},
	},
	domain.EmotionSurprise: {
		domain.RiskLow: {
			messages: [2]string{
				"Something seems to have caught you off guard. Take a moment to process what happened.",
				"You sound a bit surprised. Give yourself space to absorb this unexpected moment.",
			},
			suggestions: []string{
				"Take a moment to process what happened",
				"Write down your initial reaction",
			},
		},
		domain.RiskMedium: {
			messages: [2]string{
				"It sounds like something unexpected just happened. Let yourself feel the surprise and then decide how you want to respond.",
				"You're clearly processing something surprising. Take your time, unexpected things can be disorienting.",
			},
			suggestions: []string{
				"Give yourself time to absorb this",
				"Talk to someone about what surprised you",
			},
		},
		domain.RiskHigh: {
			messages: [2]string{
				"Wow, something really caught you by surprise! Give yourself a moment to catch your breath and process what just happened.",
				"You sound genuinely shocked. That's a big reaction, take time to understand what you're feeling.",
			},
			suggestions: []string{
				"Take a few deep breaths",
				"Write down everything you're feeling right now",
			},
		},
	},
	domain.EmotionLove: {
		domain.RiskLow: {
			messages: [2]string{
				"There's warmth and care in your words. It's lovely to feel connection.",
				"I sense affection in what you've shared. Cherish these feelings of care.",
			},
			suggestions: []string{
				"Notice what brings you this warmth",
				"Express appreciation to someone",
			},
		},
		domain.RiskMedium: {
			messages: [2]string{
				"You sound genuinely caring and connected. Love in any form is beautiful, let yourself feel it.",
				"There's real warmth coming through. These feelings of love and connection are precious.",
			},
			suggestions: []string{
				"Share your feelings with the person you care about",
				"Do something kind for yourself or someone else",
			},
		},
		domain.RiskHigh: {
			messages: [2]string{
				"You sound full of love and connection! What a wonderful feeling. Let yourself be present in it.",
				"The depth of care you're feeling is beautiful. Hold onto this, it's something special.",
			},
			suggestions: []string{
				"Express your feelings to those you love",
				"Write about what makes this connection special",
			},
		},
	},
}
