package responder

import "strings"

// Kind classifica a resposta gerada
type Kind string

const (
	KindNone     Kind = ""
	KindGreeting Kind = "greeting"
	KindThanks   Kind = "thanks"
	KindDefault  Kind = "default"
)

// Gatilhos e respostas fixas da demo
const (
	GreetingTrigger = "こんにちは"
	ThanksTrigger   = "ありがとう"

	GreetingReply = "こんにちは！今日はどんなご用件ですか？ 😊"
	ThanksReply   = "どういたしまして！お役に立てて嬉しいです。 🙌"
	DefaultReply  = "入力ありがとうございます！他に何かありますか？"
)

// Reply é o eco da entrada mais a resposta escolhida
type Reply struct {
	Input string `json:"input"`
	Reply string `json:"reply,omitempty"`
	Kind  Kind   `json:"kind,omitempty"`
}

// Respond escolhe a resposta fixa para a entrada.
// Entrada vazia não gera resposta; saudação tem prioridade sobre agradecimento.
func Respond(input string) Reply {
	r := Reply{Input: input}
	switch {
	case input == "":
		return r
	case strings.Contains(input, GreetingTrigger):
		r.Reply, r.Kind = GreetingReply, KindGreeting
	case strings.Contains(input, ThanksTrigger):
		r.Reply, r.Kind = ThanksReply, KindThanks
	default:
		r.Reply, r.Kind = DefaultReply, KindDefault
	}
	return r
}
