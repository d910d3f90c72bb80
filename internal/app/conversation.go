package app

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"voice-quiz-service/internal/domain"
)

// Intents understood by the fulfillment webhook.
const (
	IntentWelcome            = "welcome"
	IntentStartOver          = "start over"
	IntentAnotherRound       = "another round"
	IntentRejectAnotherRound = "reject another round"
	IntentNextQuestion       = "next question"
	IntentPreviousQuestion   = "previous question"
	IntentGiveAnswer         = "give answer"
	IntentGiveAnswerOnRetry  = "give answer on retry"
	IntentConfirmNext        = "confirm next question"
	IntentConfirmSeeScore    = "confirm see score"
	IntentConfirmRetry       = "confirm retry"
	IntentRejectNext         = "reject next question"
	IntentRejectRetry        = "reject retry"
	IntentDontKnow           = "i don't know"
	IntentOptionSelected     = "option selected"
	IntentTakePracticeTest   = "take practice test"
	IntentTakeMultipleChoice = "take multiple choice"
	IntentShowAbout          = "show about"
	IntentHideAbout          = "hide about"
	IntentDebugDeleteHistory = "debug delete history"
	IntentDebugGoToQuestion  = "debug go to question"
	IntentDebugSetOrder      = "debug set order linear"
	IntentFallback           = "fallback"
)

// Retry prompt options, also accepted back as selections.
const (
	optionTryAgain   = "Try again"
	optionShowAnswer = "Show me the answer"
)

type event struct {
	kind    string
	payload any
}

// conversation is one turn's view of a session: the state machine operations live here.
type conversation struct {
	svc   *QuizService
	cat   *catalog
	sess  *Session
	hist  *domain.History
	turn  domain.Turn
	reply *replyBuilder
	rnd   *rand.Rand

	started        time.Time
	events         []event
	historyDeleted bool
}

func (c *conversation) dispatch() error {
	switch strings.ToLower(strings.TrimSpace(c.turn.Intent)) {
	case IntentWelcome, IntentStartOver:
		return c.welcome()
	case IntentAnotherRound:
		c.say("another round")
		return c.startQuiz(c.sess.QuizType)
	case IntentRejectAnotherRound:
		c.close()
		return nil
	case IntentNextQuestion:
		if len(c.sess.Queue) == 0 {
			return c.fallback()
		}
		if c.sess.State != StateEnded {
			c.say("next question")
		}
		return c.askNextQuestion()
	case IntentPreviousQuestion:
		return c.askPreviousQuestion()
	case IntentGiveAnswer:
		return c.answer()
	case IntentGiveAnswerOnRetry:
		return c.answer()
	case IntentConfirmNext, IntentConfirmSeeScore:
		if len(c.sess.Queue) == 0 {
			return c.fallback()
		}
		return c.askNextQuestion()
	case IntentConfirmRetry:
		return c.retryCurrentQuestion()
	case IntentRejectNext:
		c.reply.update(CanvasState{"screenType": domain.ScreenFallback})
		c.say("not ready for next")
		return nil
	case IntentRejectRetry:
		c.say("skip retry")
		return c.skipToAnswer()
	case IntentDontKnow:
		c.say("dont know")
		return c.skipToAnswer()
	case IntentOptionSelected:
		return c.optionSelected(c.turn.Option)
	case IntentTakePracticeTest:
		return c.startQuizAnnounced(domain.QuizTypeFree)
	case IntentTakeMultipleChoice:
		return c.startQuizAnnounced(domain.QuizTypeMC)
	case IntentShowAbout:
		c.showAbout()
		return nil
	case IntentHideAbout:
		c.hideAbout()
		return nil
	case IntentDebugDeleteHistory:
		c.hist = domain.NewHistory(len(c.cat.dataset.Questions))
		c.historyDeleted = true
		c.say("history deleted")
		return nil
	case IntentDebugGoToQuestion:
		return c.goToQuestion(c.turn.Number)
	case IntentDebugSetOrder:
		c.sess.Ordering = &domain.OrderingConfig{
			PrioritizeUnseen: true,
			NumQuestions:     c.svc.cfg.Ordering.NumQuestions,
		}
		c.reply.update(CanvasState{"screenType": domain.ScreenFallback})
		c.reply.say("Debug linear order set.")
		return nil
	default:
		return c.fallback()
	}
}

// phrase picks a variant for key; relative audio paths resolve against the audio base URL.
func (c *conversation) phrase(key string) domain.Phrase {
	p := c.cat.phrases.get(c.rnd, key)
	p.Audio = absoluteURL(p.Audio, c.svc.cfg.AudioURL)
	return p
}

func (c *conversation) say(key string) {
	c.reply.sayPhrase(c.phrase(key))
}

func (c *conversation) emit(kind string, payload map[string]any) {
	payload["conversationId"] = c.sess.ConversationID
	payload["userId"] = c.turn.UserID
	c.events = append(c.events, event{kind: kind, payload: payload})
}

func (c *conversation) ordering() domain.OrderingConfig {
	if c.sess.Ordering != nil {
		return *c.sess.Ordering
	}
	return c.svc.cfg.Ordering
}

// welcome greets the user and offers the quiz types.
func (c *conversation) welcome() error {
	nowMs := c.started.UnixMilli()
	if last := c.hist.LastUsed(); last > 0 && last > nowMs-c.svc.cfg.WelcomeBackMaxTime.Milliseconds() {
		c.say("intro welcome back")
		c.reply.update(CanvasState{"returning": true})
	} else {
		c.say("intro")
		c.reply.update(CanvasState{"returning": false})
	}
	c.hist.SetLastUsed(nowMs)

	c.sess.State = StateQuizTypeSelection
	headline := c.cat.phrases.text(c.rnd, "homeHeadline")
	c.reply.update(CanvasState{
		"screenType": domain.ScreenWelcome,
		"headline":   headline,
		"qType":      domain.QuizTypeMC,
	})
	return c.reply.choices(headline, []Choice{
		{Key: string(domain.QuizTypeMC), Title: c.cat.phrases.text(c.rnd, "mcBtn")},
		{Key: string(domain.QuizTypeFree), Title: c.cat.phrases.text(c.rnd, "freeBtn")},
	})
}

func (c *conversation) startQuizAnnounced(quizType domain.QuizType) error {
	prefix := "start "
	if c.sess.QuizType != "" {
		prefix = "restart "
	}
	suffix := "mc"
	if quizType == domain.QuizTypeFree {
		suffix = "free"
	}
	c.say(prefix + suffix)
	return c.startQuiz(quizType)
}

// startQuiz resets round state, builds the queue and asks the first question.
func (c *conversation) startQuiz(quizType domain.QuizType) error {
	if quizType == "" {
		quizType = domain.QuizTypeMC
	}
	c.sess.reset(quizType)
	c.sess.Queue = BuildQueue(len(c.cat.dataset.Questions), c.hist, c.ordering(), c.rnd)
	if len(c.sess.Queue) == 0 {
		return fmt.Errorf("start quiz: %w", domain.ErrNoQuestions)
	}
	c.emit("quiz.started", map[string]any{"quizType": quizType, "queue": c.sess.Queue})
	return c.askNextQuestion()
}

// askNextQuestion advances to the next askable question or ends the quiz.
func (c *conversation) askNextQuestion() error {
	if c.sess.State == StateEnded {
		return c.endQuiz()
	}
	c.sess.Retrying = false
	for {
		c.sess.QNum++
		if c.sess.QNum >= len(c.sess.Queue) {
			return c.endQuiz()
		}
		asked, err := c.askQuestion(c.sess.Queue[c.sess.QNum])
		if err != nil || asked {
			return err
		}
		// The position now holds a replacement (or the queue shrank); retry it.
		c.sess.QNum--
	}
}

// askPreviousQuestion steps back one question, re-asking the first one at the start.
func (c *conversation) askPreviousQuestion() error {
	if len(c.sess.Queue) == 0 {
		return c.fallback()
	}
	c.sess.QNum--
	if c.sess.QNum < 0 {
		c.sess.QNum = 0
	} else {
		c.say("previous question")
	}
	if c.sess.QNum >= len(c.sess.Queue) {
		c.sess.QNum = len(c.sess.Queue) - 1
	}
	c.sess.Retrying = false
	q, _ := c.cat.dataset.Question(c.sess.Queue[c.sess.QNum])
	return c.present(q)
}

// goToQuestion asks a question by dataset index without touching the queue.
func (c *conversation) goToQuestion(num int) error {
	q, ok := c.cat.dataset.Question(num)
	if !ok {
		c.reply.say("Sorry, I don't know what question you want to go to.")
		return nil
	}
	c.reply.say(fmt.Sprintf("Going to question %d", num))
	c.sess.Retrying = false
	return c.present(q)
}

// retryCurrentQuestion re-asks the current question using up the single retry.
func (c *conversation) retryCurrentQuestion() error {
	switch {
	case c.sess.CurQ == nil:
		return c.fallback()
	case c.sess.State == StateRetryPrompt:
		c.sess.Retrying = true
	case c.sess.State != StateAwaitingAnswer:
		return c.fallback()
	}
	return c.present(*c.sess.CurQ)
}

// askQuestion asks the question at the current position. It reports false when the
// question cannot be shown on this surface and was swapped out of the queue.
func (c *conversation) askQuestion(questionNumber int) (bool, error) {
	c.sess.State = StateAsking
	q, ok := c.cat.dataset.Question(questionNumber)
	if !ok || (c.turn.Surface.Screen && !c.turn.Surface.Canvas && q.Required() > 1) {
		c.sess.Unaskable = append(c.sess.Unaskable, questionNumber)
		full := FullQueue(len(c.cat.dataset.Questions), c.hist, c.ordering(), c.rnd)
		if _, replaced := c.sess.replaceQuestion(c.sess.QNum, full); !replaced {
			c.svc.logger.Warn("no replacement question outside the current queue",
				"conversation", c.sess.ConversationID, "removed", questionNumber, "queueLen", len(c.sess.Queue))
		}
		return false, nil
	}
	return true, c.present(q)
}

// present dispatches a question: text for free answer, plus a choice set for multiple
// choice.
func (c *conversation) present(q domain.Question) error {
	cur := q
	c.sess.CurQ = &cur
	c.sess.QState = QuestionState{}
	c.sess.State = StateAwaitingAnswer

	c.reply.say(q.Question)
	c.reply.update(CanvasState{
		"screenType": domain.ScreenQuestion,
		"headline":   q.Question,
	})
	if c.sess.QuizType == domain.QuizTypeFree {
		c.reply.update(CanvasState{"qType": domain.QuizTypeFree})
		return nil
	}
	c.reply.update(CanvasState{"qType": domain.QuizTypeMC})
	if q.Required() > 1 {
		c.reply.update(CanvasState{"mustHave": q.Required()})
	}

	choices := BuildChoices(c.rnd, q, c.sess.QState)
	list := make([]Choice, len(choices))
	for i, choice := range choices {
		list[i] = Choice{Title: choice, Key: choice}
	}
	if err := c.reply.choices("", list); err != nil {
		return err
	}
	c.reply.update(CanvasState{"answerOptions": list})
	return nil
}

// answer evaluates the user's turn against the current question.
func (c *conversation) answer() error {
	if c.sess.CurQ == nil || (c.sess.State != StateAwaitingAnswer && c.sess.State != StateRetryPrompt) {
		return c.fallback()
	}
	if c.sess.State == StateRetryPrompt {
		c.sess.Retrying = true
	}

	raw, entities := c.turn.RawText, c.turn.Entities
	if c.turn.Option != "" {
		entities = []string{c.turn.Option}
		if raw == "" {
			raw = c.turn.Option
		}
	}
	eval := CheckAnswer(*c.sess.CurQ, c.sess.QState, raw, entities, c.cat.matcher)

	correct := eval.Correct
	c.sess.QState.Correct = &correct
	if correct {
		c.sess.Score++
	}
	c.sess.RoundHistory[c.sess.QNum] = RoundResult{Correct: correct, UserAnswers: eval.UserAnswers()}
	return c.showAnswer(false)
}

// skipToAnswer reveals the answer when the user gives up.
func (c *conversation) skipToAnswer() error {
	if c.sess.CurQ == nil || (c.sess.State != StateAwaitingAnswer && c.sess.State != StateRetryPrompt) {
		return c.fallback()
	}
	incorrect := false
	c.sess.QState.Correct = &incorrect
	return c.showAnswer(true)
}

// showAnswer gives feedback. A first wrong answer offers a retry when allowed; every
// other path resolves the question and logs it exactly once.
func (c *conversation) showAnswer(skipRetry bool) error {
	q := *c.sess.CurQ
	answers := c.sess.QState.answersFor(q)
	c.reply.update(CanvasState{"correctAnswers": answers, "screenType": domain.ScreenSingleResult})

	if c.sess.QState.IsCorrect() {
		headline := c.phrase("correct")
		c.reply.update(CanvasState{"headline": headline.Text, "result": "correct"})
		c.say("correct sfx")
		c.reply.sayPhrase(headline)
		if len(answers) > 1 {
			c.reply.speak(c.phrase("moreinfo multiple"), OnlyScreen)
		} else if len(answers) == 1 && hasDescription(c.cat.matcher, answers[0]) {
			c.reply.speak(c.phrase("moreinfo single"), OnlyScreen)
		}
		c.logQuestion(q, true)
	} else {
		headline := c.phrase("incorrect headline")
		c.reply.update(CanvasState{"headline": headline.Text, "result": "incorrect"})
		if !skipRetry {
			c.say("incorrect sfx")
			c.reply.sayPhrase(headline)
		}
		if !c.sess.Retrying && !skipRetry && c.svc.cfg.AllowRetry {
			c.sess.State = StateRetryPrompt
			options := []string{optionTryAgain, optionShowAnswer}
			c.reply.update(CanvasState{
				"type":    "retry",
				"prompt":  c.cat.phrases.text(c.rnd, "incorrect headline retry"),
				"options": options,
			})
			c.say("retry ask")
			c.reply.suggest(options...)
			return nil
		}
		c.reply.say(correctResponse(q, answers))
		c.logQuestion(q, false)
	}

	c.sess.Retrying = false
	c.sess.State = StateRevealing

	if len(answers) > 1 {
		c.reply.list("Possible answers", answers)
	} else if len(answers) == 1 {
		if card, ok := c.cat.matcher.Card(answers[0], c.svc.cfg.ImageURL); ok {
			c.reply.card(card)
		}
	}

	if c.sess.QNum >= len(c.sess.Queue)-1 {
		btn := c.cat.phrases.text(c.rnd, "see score button")
		c.say("quiz done")
		c.reply.suggest(btn)
		c.reply.update(CanvasState{"nextBtn": btn})
	} else {
		c.say("continue prompt")
		c.reply.suggest("Next question")
		c.reply.update(CanvasState{"nextBtn": c.cat.phrases.text(c.rnd, "next button")})
	}
	return nil
}

func (c *conversation) logQuestion(q domain.Question, correct bool) {
	c.hist.LogQuestion(q.Index, correct)
	c.emit("question.resolved", map[string]any{"questionNumber": q.Index, "correct": correct})
}

// endQuiz reports the round. Repeating it on an ended round re-renders without a
// second completion event.
func (c *conversation) endQuiz() error {
	first := c.sess.State != StateEnded
	cfg := c.svc.cfg
	sum := Summarize(c.cat.dataset, c.sess.Queue, c.sess.RoundHistory, cfg.FeedbackThresholds, cfg.NumToPass)

	c.sess.Score = sum.Score
	c.sess.State = StateEnded
	c.sess.CurQ = nil
	c.sess.Retrying = false
	if c.sess.QNum > len(c.sess.Queue) {
		c.sess.QNum = len(c.sess.Queue)
	}

	c.reply.update(CanvasState{"results": sum.Results})
	c.reply.speak(domain.Phrase{Text: fmt.Sprintf("You got %d of %d correct.", sum.Score, sum.Total)}, OnlyAudio)
	if sum.Tier != "" {
		c.say(sum.Tier + "-sfx")
		c.say(sum.Tier)
	}
	if sum.Passed {
		c.say("pass feedback")
	} else {
		c.say("fail feedback")
	}
	c.say("restart ask")
	c.reply.suggest("Yes")
	c.reply.update(CanvasState{
		"screenType": domain.ScreenResults,
		"headline":   fmt.Sprintf("You scored %d out of %d", sum.Score, sum.Total),
		"qType":      domain.QuizTypeMC,
		"score":      sum.Score,
	})

	nextRound := c.cat.phrases.text(c.rnd, "next round button")
	stop := c.cat.phrases.text(c.rnd, "stop button")
	if err := c.reply.choices("", []Choice{{Key: nextRound, Title: nextRound}, {Key: stop, Title: stop}}); err != nil {
		return err
	}
	if first {
		c.emit("quiz.completed", map[string]any{"score": sum.Score, "total": sum.Total, "passed": sum.Passed})
	}
	return nil
}

// optionSelected routes a tapped or spoken option by the current state.
func (c *conversation) optionSelected(option string) error {
	switch c.sess.State {
	case StateQuizTypeSelection:
		quizType, ok := domain.ParseQuizType(option)
		if !ok {
			c.say("quiz type fallback")
			return nil
		}
		return c.startQuiz(quizType)
	case StateEnded:
		if c.cat.phrases.is("next round button", option) {
			c.say("another round")
			return c.startQuiz(c.sess.QuizType)
		}
		c.close()
		return nil
	case StateRetryPrompt:
		switch {
		case strings.EqualFold(option, optionTryAgain):
			return c.retryCurrentQuestion()
		case strings.EqualFold(option, optionShowAnswer):
			c.say("skip retry")
			return c.skipToAnswer()
		}
		return c.answer()
	case StateAwaitingAnswer:
		return c.answer()
	case StateRevealing:
		if c.cat.phrases.is("next button", option) || c.cat.phrases.is("see score button", option) ||
			strings.EqualFold(option, "Next question") {
			return c.askNextQuestion()
		}
	}
	c.reply.say("Unhandled option selected: " + option)
	return nil
}

// fallback handles input no intent matched.
func (c *conversation) fallback() error {
	switch c.sess.State {
	case StateAwaitingAnswer, StateRetryPrompt:
		if c.sess.CurQ != nil && strings.TrimSpace(c.turn.RawText+c.turn.Option) != "" {
			return c.answer()
		}
	case StateQuizTypeSelection:
		c.say("quiz type fallback")
		return nil
	}
	c.reply.update(CanvasState{"screenType": domain.ScreenFallback})
	c.say("fallback")
	return nil
}

func (c *conversation) showAbout() {
	body := c.phrase("about body")
	c.reply.sayPhrase(body)
	c.reply.update(CanvasState{
		"screenType": domain.ScreenAbout,
		"headline":   c.cat.phrases.text(c.rnd, "about headline"),
		"body":       body.Text,
	})
	if c.turn.Surface.Canvas && c.sess.State != StateAbout {
		c.sess.PreviousState = c.sess.State
		c.sess.State = StateAbout
	}
}

// hideAbout returns to the screen that was showing before the about overlay.
func (c *conversation) hideAbout() {
	if c.sess.State == StateAbout {
		c.sess.State = c.sess.PreviousState
		c.sess.PreviousState = ""
	}
	c.reply.update(CanvasState{"screenType": screenFor(c.sess.State)})
}

func (c *conversation) close() {
	c.say("goodbye")
	c.sess.State = StateIdle
	c.reply.close = true
}

func screenFor(state State) domain.ScreenType {
	switch state {
	case StateAsking, StateAwaitingAnswer:
		return domain.ScreenQuestion
	case StateRetryPrompt, StateRevealing:
		return domain.ScreenSingleResult
	case StateEnded:
		return domain.ScreenResults
	}
	return domain.ScreenWelcome
}

// correctResponse tells the user what the correct answers were.
func correctResponse(q domain.Question, answers []string) string {
	switch {
	case len(answers) == 0:
		return ""
	case len(answers) == 1:
		return "The correct answer is " + answers[0] + "."
	case q.Required() < len(answers):
		return "The correct answers could be " + textList(answers, "or") + "."
	default:
		return "The correct answers are " + textList(answers, "and") + "."
	}
}

func hasDescription(m *Matcher, answer string) bool {
	_, ok := m.Lookup(answer, true)
	return ok
}
