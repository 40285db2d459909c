package orgmode

import (
	"bufio"
	"io"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

var (
	headingRegex   = regexp.MustCompile(`^\*+\s+(TODO|NEXT|DOING|DONE)\s*(?:\[#([A-C])\])?\s*(.*?)(?:\s+(:(?:[\w@]+:)+))?\s*$`)
	deadlineRegex  = regexp.MustCompile(`DEADLINE:\s+<(\d{4}-\d{2}-\d{2})(?:\s+[A-Za-z]{2,3})?(?:\s+(\d{1,2}:\d{2}))?[^>]*>`)
	scheduledRegex = regexp.MustCompile(`SCHEDULED:\s+<(\d{4}-\d{2}-\d{2})(?:\s+[A-Za-z]{2,3})?(?:\s+(\d{1,2}:\d{2}))?(?:-(\d{1,2}:\d{2}))?[^>]*>`)
	checkboxRegex  = regexp.MustCompile(`^[-+]\s+\[([ Xx])\]\s+(.+)$`)
	anyHeading     = regexp.MustCompile(`^\*+\s`)
)

// defaultHour places date-only scheduled entries in the morning.
const defaultHour = 9

func parseFile(filePath string) ([]model.TaskInput, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(file, filePath)
}

// ParseFiles parses multiple Org-mode files into task inputs.
func ParseFiles(filePaths []string) ([]model.TaskInput, error) {
	var all []model.TaskInput
	for _, filePath := range filePaths {
		tasks, err := parseFile(filePath)
		if err != nil {
			return nil, err
		}
		all = append(all, tasks...)
	}
	return all, nil
}

// Parse reads TODO/NEXT/DOING/DONE headings of any level. Planning lines
// become due dates and scheduled blocks, checkbox items become subtasks and
// remaining body text becomes the description.
func Parse(r io.Reader, source string) ([]model.TaskInput, error) {
	log.Printf("parsing file: %s", source)
	scanner := bufio.NewScanner(r)
	var tasks []model.TaskInput
	var current *model.TaskInput
	var body []string
	inDrawer := false

	flush := func() {
		if current != nil && current.Title != "" {
			current.Description = strings.TrimSpace(strings.Join(body, "\n"))
			tasks = append(tasks, *current)
		}
		current, body, inDrawer = nil, nil, false
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if anyHeading.MatchString(line) {
			flush()
			if m := headingRegex.FindStringSubmatch(line); m != nil {
				current = &model.TaskInput{
					Title:    strings.TrimSpace(m[3]),
					Status:   status(m[1]),
					Priority: priority(m[2]),
					Tags:     tags(m[4]),
				}
			}
			continue
		}
		if current == nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, ":END:"):
			inDrawer = false
			continue
		case inDrawer:
			continue
		case strings.HasPrefix(line, ":") && strings.HasSuffix(line, ":"):
			inDrawer = true
			continue
		}

		planning := strings.HasPrefix(line, "CLOSED:")
		if m := deadlineRegex.FindStringSubmatch(line); m != nil {
			if due, ok := timestamp(m[1], m[2], 0); ok {
				current.DueDate = &due
			}
			planning = true
		}
		if m := scheduledRegex.FindStringSubmatch(line); m != nil {
			if at, ok := timestamp(m[1], m[2], defaultHour); ok {
				current.ScheduledAt = &at
				current.DurationMinutes = blockMinutes(at, m[1], m[3])
			}
			planning = true
		}
		if planning {
			continue
		}

		if m := checkboxRegex.FindStringSubmatch(line); m != nil {
			current.Subtasks = append(current.Subtasks, model.Subtask{
				Title:     strings.TrimSpace(m[2]),
				Completed: m[1] != " ",
			})
			continue
		}
		if line != "" || len(body) > 0 {
			body = append(body, line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func status(keyword string) model.Status {
	switch keyword {
	case "DONE":
		return model.StatusCompleted
	case "DOING":
		return model.StatusInProgress
	}
	return model.StatusTodo
}

func priority(cookie string) model.Priority {
	switch cookie {
	case "A":
		return model.PriorityHigh
	case "B":
		return model.PriorityMedium
	case "C":
		return model.PriorityLow
	}
	return ""
}

func tags(s string) []string {
	var out []string
	for _, tag := range strings.Split(strings.Trim(s, ":"), ":") {
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// timestamp parses an Org date with an optional HH:MM, in local time.
func timestamp(date, clock string, hour int) (time.Time, bool) {
	if clock == "" {
		d, err := time.ParseInLocation("2006-01-02", date, time.Local)
		if err != nil {
			return time.Time{}, false
		}
		return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.Local), true
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// blockMinutes turns an Org time range into a 30 or 60 minute block.
func blockMinutes(start time.Time, date, end string) int {
	if end == "" {
		return model.DefaultBlockMinutes
	}
	stop, ok := timestamp(date, end, 0)
	if ok && stop.Sub(start) > 30*time.Minute {
		return 60
	}
	return model.DefaultBlockMinutes
}

// FilterTasks keeps the tasks carrying the given tag.
func FilterTasks(tasks []model.TaskInput, tag string) []model.TaskInput {
	var filtered []model.TaskInput
	for _, task := range tasks {
		for _, t := range task.Tags {
			if t == tag {
				filtered = append(filtered, task)
				break
			}
		}
	}
	return filtered
}
