package notify

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperdesk/paperdesk/dto"
	"github.com/paperdesk/paperdesk/internal/enum"
	"github.com/paperdesk/paperdesk/internal/logger"
)

func testLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{LogLevel: "error"})
	appLogger.InitLogger()
	return appLogger
}

func TestNotifier_FIFO(t *testing.T) {
	notifier := NewNotifier(10, nil, testLogger())

	notifier.Publish(dto.NewFormNotification("f1"))
	notifier.Publish(dto.NewTransactionNotification("t1"))
	notifier.Publish(dto.NewCompareNotification("d1", "diff"))

	drained := notifier.Drain(10)
	require.Len(t, drained, 3)
	assert.Equal(t, enum.NotificationForm, drained[0].Type)
	assert.Equal(t, enum.NotificationTransaction, drained[1].Type)
	assert.Equal(t, enum.NotificationCompare, drained[2].Type)
}

func TestNotifier_DrainRespectsMax(t *testing.T) {
	notifier := NewNotifier(10, nil, testLogger())
	for i := 0; i < 5; i++ {
		notifier.Publish(dto.NewFormNotification(fmt.Sprintf("f%d", i)))
	}

	first := notifier.Drain(2)
	assert.Len(t, first, 2)
	assert.Equal(t, "f0", first[0].Data["formId"])

	rest := notifier.Drain(10)
	assert.Len(t, rest, 3)
	assert.Equal(t, "f2", rest[0].Data["formId"])
}

func TestNotifier_DrainEmpty(t *testing.T) {
	notifier := NewNotifier(10, nil, testLogger())
	assert.Empty(t, notifier.Drain(10))
}

func TestNotifier_PublishNeverBlocksWhenFull(t *testing.T) {
	notifier := NewNotifier(2, nil, testLogger())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			notifier.Publish(dto.NewFormNotification(fmt.Sprintf("f%d", i)))
		}
		close(done)
	}()

	<-done

	// Oldest two survived; overflow was dropped, not blocked on.
	drained := notifier.Drain(10)
	require.Len(t, drained, 2)
	assert.Equal(t, "f0", drained[0].Data["formId"])
	assert.Equal(t, "f1", drained[1].Data["formId"])
}

func TestNotifier_ConcurrentProducers(t *testing.T) {
	notifier := NewNotifier(1000, nil, testLogger())

	var wg sync.WaitGroup
	for p := 0; p < 10; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				notifier.Publish(dto.NewTransactionNotification(fmt.Sprintf("t%d-%d", p, i)))
			}
		}(p)
	}
	wg.Wait()

	drained := notifier.Drain(1000)
	assert.Len(t, drained, 500)
}

func TestNotifier_StampsCreatedAt(t *testing.T) {
	notifier := NewNotifier(10, nil, testLogger())
	notifier.Publish(dto.NewFormNotification("f1"))

	drained := notifier.Drain(1)
	require.Len(t, drained, 1)
	assert.False(t, drained[0].CreatedAt.IsZero())
}

func TestNotifier_EventsChannelStreams(t *testing.T) {
	notifier := NewNotifier(10, nil, testLogger())
	notifier.Publish(dto.NewFormNotification("f1"))

	select {
	case notification := <-notifier.Events():
		assert.Equal(t, enum.NotificationForm, notification.Type)
	default:
		t.Fatal("expected a buffered event")
	}
}
