package utils

func (m *MutexMap) Size() int {
	m.edit.Lock()
	defer m.edit.Unlock()
	return len(m.mutexes)
}
