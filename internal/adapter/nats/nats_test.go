package nats

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Strob0t/RentMatch/internal/domain/contact"
	"github.com/Strob0t/RentMatch/internal/logger"
	"github.com/Strob0t/RentMatch/internal/port/messagequeue"
)

const waitFor = 10 * time.Second

func testConnect(t *testing.T) *Queue {
	t.Helper()

	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}
	q, err := Connect(context.Background(), url)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })
	return q
}

// testSubject is captured by the RENTMATCH stream but has no schema, so any
// JSON passes validation.
func testSubject() string {
	return "contacts.test." + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// watchDLQ collects the first message published to subject's DLQ after the
// call.
func watchDLQ(t *testing.T, q *Queue, subject string) <-chan jetstream.Msg {
	t.Helper()

	cons, err := q.js.CreateOrUpdateConsumer(context.Background(), streamName, jetstream.ConsumerConfig{
		FilterSubject: subject + dlqSuffix,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		t.Fatalf("create DLQ consumer: %v", err)
	}
	got := make(chan jetstream.Msg, 1)
	cc, err := cons.Consume(func(msg jetstream.Msg) {
		_ = msg.Ack()
		select {
		case got <- msg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("consume DLQ: %v", err)
	}
	t.Cleanup(cc.Stop)
	return got
}

func TestQueue_ContactCreatedRoundTrip(t *testing.T) {
	q := testConnect(t)
	subject := testSubject()

	want := contact.Created{
		ContactID:  uuid.NewString(),
		OwnerID:    "owner-1",
		RenterID:   "renter-1",
		PropertyID: "prop-1",
		Message:    "2BHK near the metro, available from June",
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
	data, err := json.Marshal(messagequeue.NewContactCreatedPayload(want))
	if err != nil {
		t.Fatal(err)
	}

	type delivery struct {
		ev    contact.Created
		reqID string
	}
	got := make(chan delivery, 1)
	stop, err := q.Subscribe(context.Background(), subject, func(ctx context.Context, _ string, d []byte) error {
		var p messagequeue.ContactCreatedPayload
		if err := json.Unmarshal(d, &p); err != nil {
			return err
		}
		got <- delivery{ev: p.Event(), reqID: logger.RequestID(ctx)}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	ctx := logger.WithRequestID(context.Background(), "req-contact-7")
	if err := q.Publish(ctx, subject, data); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case d := <-got:
		if d.ev.ContactID != want.ContactID || d.ev.Message != want.Message || !d.ev.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("event = %+v, want %+v", d.ev, want)
		}
		if d.reqID != "req-contact-7" {
			t.Errorf("request id = %q, want req-contact-7", d.reqID)
		}
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for contact event")
	}
}

func TestQueue_InvalidContactEventGoesToDLQ(t *testing.T) {
	q := testConnect(t)
	subject := messagequeue.SubjectContactCreated
	dlq := watchDLQ(t, q, subject)

	called := make(chan struct{}, 1)
	stop, err := q.Subscribe(context.Background(), subject, func(_ context.Context, _ string, d []byte) error {
		if strings.Contains(string(d), `"owner_id":""`) {
			called <- struct{}{}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	// Valid JSON, but an event without an owner fails the schema.
	bad := `{"contact_id":"` + uuid.NewString() + `","owner_id":"","renter_id":"r1"}`
	if err := q.Publish(context.Background(), subject, []byte(bad)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-dlq:
		if string(msg.Data()) != bad {
			t.Errorf("DLQ data = %q, want %q", msg.Data(), bad)
		}
	case <-called:
		t.Fatal("handler received an invalid event")
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for DLQ message")
	}
}

func TestQueue_ExhaustedRetriesGoToDLQ(t *testing.T) {
	q := testConnect(t)
	subject := testSubject()
	dlq := watchDLQ(t, q, subject)

	stop, err := q.Subscribe(context.Background(), subject, func(context.Context, string, []byte) error {
		return errors.New("chat service unavailable")
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	// A Retry-Count at the limit marks the message as already exhausted.
	msg := &nats.Msg{Subject: subject, Data: []byte(`{"attempt":"last"}`), Header: nats.Header{}}
	msg.Header.Set(headerRetryCount, strconv.Itoa(maxRetries))
	if _, err := q.js.PublishMsg(context.Background(), msg); err != nil {
		t.Fatalf("PublishMsg: %v", err)
	}

	select {
	case got := <-dlq:
		if string(got.Data()) != `{"attempt":"last"}` {
			t.Errorf("DLQ data = %q", got.Data())
		}
		if got.Headers().Get(headerRetryCount) == "" {
			t.Error("DLQ message lost its Retry-Count header")
		}
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for DLQ message")
	}
}

func TestQueue_KeyValueBucket(t *testing.T) {
	q := testConnect(t)
	ctx := context.Background()
	bucket := "RENTMATCH_TEST_" + strings.ToUpper(strings.ReplaceAll(uuid.NewString()[:8], "-", ""))

	kv, err := q.KeyValue(ctx, bucket, time.Minute)
	if err != nil {
		t.Fatalf("KeyValue: %v", err)
	}
	t.Cleanup(func() { _ = q.js.DeleteKeyValue(context.Background(), bucket) })

	if _, err := kv.Put(ctx, "anon.seq.renter-1", []byte("7")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// A second lookup returns the existing bucket.
	again, err := q.KeyValue(ctx, bucket, time.Minute)
	if err != nil {
		t.Fatalf("KeyValue again: %v", err)
	}
	entry, err := again.Get(ctx, "anon.seq.renter-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(entry.Value()) != "7" {
		t.Errorf("value = %q, want 7", entry.Value())
	}

	if err := kv.Delete(ctx, "anon.seq.renter-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := kv.Get(ctx, "anon.seq.renter-1"); !errors.Is(err, jetstream.ErrKeyNotFound) {
		t.Errorf("Get after delete = %v, want ErrKeyNotFound", err)
	}
}

func TestQueue_IsConnected(t *testing.T) {
	q := testConnect(t)
	if !q.IsConnected() {
		t.Error("IsConnected() = false after Connect")
	}
}

func TestDurableName(t *testing.T) {
	tests := map[string]string{
		messagequeue.SubjectContactCreated: "rentmatch_contacts_created",
		"contacts.*":                       "rentmatch_contacts_any",
		"contacts.>":                       "rentmatch_contacts_all",
	}
	for subject, want := range tests {
		if got := durableName(subject); got != want {
			t.Errorf("durableName(%q) = %q, want %q", subject, got, want)
		}
	}
}
