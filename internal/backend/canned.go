package backend

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

// cannedTemplates echo the transcript back with a helpful follow-up. The
// %s verb is replaced with the transcript.
var cannedTemplates = []string{
	"Hola, escuché que dijiste: %s. ¿Cómo puedo ayudarte?",
	"Gracias por tu mensaje: %s. ¿En qué más puedo asistirte?",
	"Recibí tu audio: %s. ¿Tienes alguna pregunta específica?",
	"Perfecto, dijiste: %s. ¿Necesitas más información?",
	"Entendido: %s. ¿Hay algo más que quieras saber?",
}

// CannedReplier is a rule-based ReplyGenerator that picks one of a fixed set
// of reply templates. It never fails and needs no external service.
type CannedReplier struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewCannedReplier(seed int64) *CannedReplier {
	return &CannedReplier{rng: rand.New(rand.NewSource(seed))}
}

func (c *CannedReplier) Generate(_ context.Context, transcript string) (string, error) {
	c.mu.Lock()
	i := c.rng.Intn(len(cannedTemplates))
	c.mu.Unlock()
	return fmt.Sprintf(cannedTemplates[i], transcript), nil
}
