// Package fileio keeps read-only handles to benchmark input files open
// across iterations.
package fileio

import (
	"fmt"
	"os"
	"strings"
	"sync"

	berrors "github.com/wzqhbustb/igzbench/errors"
)

// Pool 管理输入文件句柄的复用
type Pool struct {
	mu       sync.Mutex
	handles  map[string]*entry
	openFile func(string) (*os.File, error)
}

type entry struct {
	file     *os.File
	refCount int
	path     string
	size     int64
}

// NewPool 创建一个新的只读文件句柄池
func NewPool() *Pool {
	return &Pool{
		handles:  make(map[string]*entry),
		openFile: os.Open,
	}
}

// Register 打开文件并以 id 注册到池中。同一 id 重复注册相同路径是幂等的。
func (p *Pool) Register(id string, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, exists := p.handles[id]; exists {
		if e.path != path {
			return berrors.New(berrors.ErrInvalidArgument).
				Op("register_file").
				Path(path).
				Context("id", id).
				Context("registered_path", e.path).
				Build()
		}
		return nil
	}

	file, err := p.openFile(path)
	if err != nil {
		return berrors.OpenFile(path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return berrors.IO("stat_file", path, err)
	}
	if info.IsDir() {
		file.Close()
		return berrors.New(berrors.ErrIO).
			Op("register_file").
			Path(path).
			Context("reason", "is a directory").
			Severity(berrors.SeverityFatal).
			Build()
	}

	p.handles[id] = &entry{
		file: file,
		path: path,
		size: info.Size(),
	}
	return nil
}

// Get 获取文件句柄，引用计数 +1
func (p *Pool) Get(id string) (*os.File, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, exists := p.handles[id]
	if !exists {
		return nil, notRegistered("get_file", id)
	}

	e.refCount++
	return e.file, nil
}

// Put 释放文件句柄，引用计数 -1；文件保持打开以便下一次迭代复用
func (p *Pool) Put(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, exists := p.handles[id]
	if !exists {
		return
	}
	if e.refCount > 0 {
		e.refCount--
	}
}

// RefCount 获取文件的当前引用计数，未注册返回 -1
func (p *Pool) RefCount(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, exists := p.handles[id]
	if !exists {
		return -1
	}
	return e.refCount
}

// Size 返回注册时文件的大小
func (p *Pool) Size(id string) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, exists := p.handles[id]
	if !exists {
		return 0, notRegistered("file_size", id)
	}
	return e.size, nil
}

// Path 获取文件的完整路径
func (p *Pool) Path(id string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, exists := p.handles[id]
	if !exists {
		return "", notRegistered("file_path", id)
	}
	return e.path, nil
}

// Stats 返回文件池统计信息
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	totalRefs := 0
	for _, e := range p.handles {
		totalRefs += e.refCount
	}
	return Stats{
		TotalFiles:      len(p.handles),
		TotalReferences: totalRefs,
	}
}

type Stats struct {
	TotalFiles      int
	TotalReferences int
}

// Close 关闭所有文件句柄。仍被引用的文件和关闭失败都会汇总到返回的错误中。
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var issues []string
	for id, e := range p.handles {
		if e.refCount > 0 {
			issues = append(issues, fmt.Sprintf("file %s still has %d references", id, e.refCount))
		}
		if err := e.file.Close(); err != nil {
			issues = append(issues, fmt.Sprintf("close file %s failed: %v", id, err))
		}
	}
	p.handles = make(map[string]*entry)

	if len(issues) > 0 {
		return berrors.New(berrors.ErrIO).
			Op("close_pool").
			Context("issues", strings.Join(issues, "; ")).
			Severity(berrors.SeverityWarning).
			Build()
	}
	return nil
}

func notRegistered(op, id string) error {
	return berrors.New(berrors.ErrInvalidArgument).
		Op(op).
		Context("id", id).
		Context("reason", "file not registered").
		Build()
}
