package tts

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPreprocessText(t *testing.T) {
	t.Parallel()

	got := PreprocessText("“测试”  内容。下一句！完毕？")
	if strings.ContainsAny(got, "“”") {
		t.Errorf("中文引号未被替换: %q", got)
	}
	if strings.Contains(got, "  ") {
		t.Errorf("连续空白未被合并: %q", got)
	}
	// 句末标点后插入停顿
	if !strings.Contains(got, "。，") || !strings.Contains(got, "！，") {
		t.Errorf("句末停顿未插入: %q", got)
	}
	if strings.Contains(got, "，，") {
		t.Errorf("出现重复逗号: %q", got)
	}
}

func TestPreprocessTextLengthCap(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("很长的文本", 300)
	got := PreprocessText(long)
	if utf8.RuneCountInString(got) > 1000 {
		t.Errorf("预处理文本超长: %d", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("截断后应以省略号结尾: %q", got)
	}
}

func TestSimplifyText(t *testing.T) {
	t.Parallel()

	got := SimplifyText("第一个完整的句子内容。第二个完整的句子内容。第三个完整的句子内容。")
	if strings.Count(got, "。") != 2 {
		t.Errorf("简化文本应只保留2句: %q", got)
	}

	// 特殊符号被清除
	got = SimplifyText("模型评估★结果♦发布了@官方#渠道")
	if strings.ContainsAny(got, "★♦@#") {
		t.Errorf("特殊符号未被清除: %q", got)
	}

	// 空输入退回占位文本
	if got := SimplifyText(""); got != "内容摘要" {
		t.Errorf("空输入应返回占位文本，实际 %q", got)
	}
}

func TestEstimateDuration(t *testing.T) {
	t.Parallel()

	// 短文本有最小时长
	if got := EstimateDuration("短"); got != 5 {
		t.Errorf("最小时长应为5秒，实际 %d", got)
	}

	// 90字约20秒
	if got := EstimateDuration(strings.Repeat("字", 90)); got != 20 {
		t.Errorf("90字应估算为20秒，实际 %d", got)
	}
}
