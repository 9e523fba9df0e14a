package uuid

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"
)

const (
	// UUID_LENGTH is length of a UUID
	UUID_LENGTH = 16
	encodeUUID  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_."
)

var (
	uuidEncoding = base64.NewEncoding(encodeUUID).WithPadding(base64.NoPadding)

	// counter is atomically incremented for every generated id
	counter uint32
	// machineID is the first 3 bytes of md5(hostname)
	machineID = readMachineID()
)

// GenUUID generates a new unique id: timestamp, machine, pid and counter
func GenUUID() string {
	var b [12]byte
	binary.BigEndian.PutUint32(b[:], uint32(time.Now().Unix()))
	copy(b[4:7], machineID)
	pid := os.Getpid()
	b[7] = byte(pid >> 8)
	b[8] = byte(pid)
	i := atomic.AddUint32(&counter, 1)
	b[9] = byte(i >> 16)
	b[10] = byte(i >> 8)
	b[11] = byte(i)

	return uuidEncoding.EncodeToString(b[:])
}

// GenWorkerID generates the worker id used when none is configured
func GenWorkerID(workerType string) string {
	if workerType == "" {
		workerType = "worker"
	}
	return workerType + "-" + GenUUID()
}

func readMachineID() []byte {
	var sum [3]byte
	id := sum[:]
	hostname, err1 := os.Hostname()
	if err1 != nil {
		_, err2 := io.ReadFull(rand.Reader, id)
		if err2 != nil {
			panic(fmt.Errorf("cannot get hostname: %v; %v", err1, err2))
		}
		return id
	}
	hw := md5.New()
	hw.Write([]byte(hostname))
	copy(id, hw.Sum(nil))
	return id
}
