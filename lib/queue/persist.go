package queue

import (
	"github.com/go-xorm/xorm"
	_ "github.com/mattn/go-sqlite3"
)

// entryVersion is written into every persisted row so a future format
// change can distinguish old rows, per the design note recommending a
// version byte for the replacement of the original's reflective
// serializer.
const entryVersion = 1

// IncomingRow is the persisted shape of one incoming-queue entry.
type IncomingRow struct {
	ID        int64 `xorm:"pk autoincr"`
	Username  string `xorm:"index"`
	Sender    string
	To        string
	Cc        string
	Date      string
	Subject   string
	Body      string
	Encrypted bool
	Version   int
}

// OutgoingRow is the persisted shape of one outgoing-queue entry.
type OutgoingRow struct {
	ID             int64 `xorm:"pk autoincr"`
	SmtpFrom       string
	SmtpRecipients string
	Sender         string
	To             string
	Cc             string
	Date           string
	Subject        string
	Body           string
	Encrypted      bool
	Version        int
}

// persistStore serializes all access to one xorm engine through a single
// consumer goroutine, the same shape as the teacher's lib/db/xorm.go
// dbChnl + Run() loop, adapted from a reflective user-model store to a
// plain function-closure channel.
type persistStore struct {
	engine      *xorm.Engine
	dbChnl      chan func(*xorm.Engine)
	closewaiter chan struct{}
}

func newPersistStore(path string, models ...interface{}) (*persistStore, error) {
	engine, err := xorm.NewEngine("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := engine.Sync(models...); err != nil {
		engine.Close()
		return nil, err
	}
	p := &persistStore{
		engine:      engine,
		dbChnl:      make(chan func(*xorm.Engine)),
		closewaiter: make(chan struct{}),
	}
	go p.run()
	return p, nil
}

func (p *persistStore) run() {
	for fn := range p.dbChnl {
		fn(p.engine)
	}
	p.engine.Close()
	close(p.closewaiter)
}

func (p *persistStore) exec(fn func(*xorm.Engine)) {
	done := make(chan struct{})
	p.dbChnl <- func(e *xorm.Engine) {
		fn(e)
		close(done)
	}
	<-done
}

// Close stops the consumer goroutine and waits for the engine to close.
func (p *persistStore) Close() {
	close(p.dbChnl)
	<-p.closewaiter
}

func (p *persistStore) insertIncoming(row *IncomingRow) (int64, error) {
	row.Version = entryVersion
	var err error
	p.exec(func(e *xorm.Engine) {
		_, err = e.Insert(row)
	})
	return row.ID, err
}

func (p *persistStore) deleteIncoming(id int64) error {
	var err error
	p.exec(func(e *xorm.Engine) {
		_, err = e.Id(id).Delete(&IncomingRow{})
	})
	return err
}

func (p *persistStore) loadAllIncoming() ([]*IncomingRow, error) {
	var rows []*IncomingRow
	var err error
	p.exec(func(e *xorm.Engine) {
		err = e.Find(&rows)
	})
	return rows, err
}

func (p *persistStore) insertOutgoing(row *OutgoingRow) (int64, error) {
	row.Version = entryVersion
	var err error
	p.exec(func(e *xorm.Engine) {
		_, err = e.Insert(row)
	})
	return row.ID, err
}

func (p *persistStore) deleteOutgoing(id int64) error {
	var err error
	p.exec(func(e *xorm.Engine) {
		_, err = e.Id(id).Delete(&OutgoingRow{})
	})
	return err
}

func (p *persistStore) loadAllOutgoing() ([]*OutgoingRow, error) {
	var rows []*OutgoingRow
	var err error
	p.exec(func(e *xorm.Engine) {
		err = e.Find(&rows)
	})
	return rows, err
}
